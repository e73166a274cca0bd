package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCourseRequiresInstructor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createUser(t, model.Student)

	_, err := env.courses.CreateCourse(ctx, student, CreateCourseRequest{Title: "Nope"})
	assert.ErrorIs(t, err, util.ErrInstructorOnly)

	_, err = env.courses.CreateCourse(ctx, nil, CreateCourseRequest{Title: "Nope"})
	assert.ErrorIs(t, err, util.ErrUnauthenticated)
}

func TestCreateCourseDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)

	course, err := env.courses.CreateCourse(ctx, instructor, CreateCourseRequest{
		Title:      "Concurrency Patterns",
		PriceCents: 4900,
		Currency:   "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CourseDraft, course.Status)
	assert.Equal(t, model.LevelBeginner, course.Level)
	assert.Equal(t, "USD", course.Currency)
	assert.Equal(t, instructor.ID, course.InstructorID)
	assert.True(t, util.IsSlug(course.Slug))

	_, err = env.courses.CreateCourse(ctx, instructor, CreateCourseRequest{Title: "Explicit", Slug: "go-basics"})
	require.NoError(t, err)
	_, err = env.courses.CreateCourse(ctx, instructor, CreateCourseRequest{Title: "Again", Slug: "go-basics"})
	assert.ErrorIs(t, err, util.ErrSlugTaken)
}

func TestUpdateCourseOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, model.Instructor)
	course, _ := env.publishedCourse(t, owner, 0)

	req := UpdateCourseRequest{
		Title:  "Renamed",
		Level:  model.LevelAdvanced,
		Status: model.CoursePublished,
	}
	cases := []struct {
		name   string
		caller *model.User
		err    error
	}{
		{"owner", owner, nil},
		{"other instructor", env.createUser(t, model.Instructor), util.ErrPermissionDenied},
		{"student", env.createUser(t, model.Student), util.ErrPermissionDenied},
		{"admin", env.createUser(t, model.Admin), nil},
		{"anonymous", nil, util.ErrUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			updated, err := env.courses.UpdateCourse(ctx, tc.caller, course.ID, req)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Renamed", updated.Title)
			assert.Equal(t, course.Slug, updated.Slug)
		})
	}
}

func TestLessonCountFollowsAddAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	course, lessons := env.publishedCourse(t, instructor, 3)

	stored, err := env.courses.CourseRepo.FindByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalLessons)
	assert.Equal(t, 2, lessons[2].OrderIndex)

	require.NoError(t, env.courses.DeleteLesson(ctx, instructor, lessons[1].ID))
	stored, err = env.courses.CourseRepo.FindByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalLessons)

	other := env.createUser(t, model.Instructor)
	err = env.courses.DeleteLesson(ctx, other, lessons[0].ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestListLessonsRedactsForOutsiders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, _ := env.publishedCourse(t, instructor, 2)

	views, err := env.courses.ListLessons(ctx, nil, course.Slug)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.False(t, views[0].Locked)
	assert.Equal(t, "body", views[0].Content)
	assert.True(t, views[1].Locked)
	assert.Empty(t, views[1].Content)

	_, err = env.enrollments.Enroll(ctx, student, course.ID, "")
	require.NoError(t, err)
	views, err = env.courses.ListLessons(ctx, student, course.ID)
	require.NoError(t, err)
	assert.False(t, views[1].Locked)
	assert.Equal(t, "body", views[1].Content)
}

func TestDraftCourseHiddenFromPublic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	draft, err := env.courses.CreateCourse(ctx, instructor, CreateCourseRequest{Title: "Work in progress"})
	require.NoError(t, err)
	env.publishedCourse(t, instructor, 0)

	_, err = env.courses.GetCourse(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)

	own, err := env.courses.GetCourse(ctx, instructor, draft.Slug)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, own.ID)

	list, total, err := env.courses.ListPublished(ctx, "", util.NewPagination(1, 10, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Instructor)
	assert.Equal(t, instructor.ID, list[0].Instructor.ID)

	mine, err := env.courses.ListInstructorCourses(ctx, instructor)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestDeleteCourseWithEnrollmentsConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, _ := env.publishedCourse(t, instructor, 1)
	empty, _ := env.publishedCourse(t, instructor, 2)

	_, err := env.enrollments.Enroll(ctx, student, course.ID, "")
	require.NoError(t, err)

	err = env.courses.DeleteCourse(ctx, instructor, course.ID)
	assert.ErrorIs(t, err, util.ErrCourseHasLearners)
	assert.Equal(t, util.KindConflict, util.KindOf(err))

	require.NoError(t, env.courses.DeleteCourse(ctx, instructor, empty.ID))
	_, err = env.courses.CourseRepo.FindByID(ctx, empty.ID)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
	lessons, err := env.courses.LessonRepo.FindByCourse(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}
