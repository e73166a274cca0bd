package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, _ := env.publishedCourse(t, instructor, 2)

	enrollment, err := env.enrollments.Enroll(ctx, student, course.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentActive, enrollment.Status)
	assert.Nil(t, enrollment.PaymentReference)

	_, err = env.enrollments.Enroll(ctx, student, course.ID, "")
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)

	enrolled, err := env.enrollments.IsEnrolled(ctx, student, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	count, err := env.courses.EnrollmentCount(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestEnrollRequiresPublishedCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)

	draft, err := env.courses.CreateCourse(ctx, instructor, CreateCourseRequest{Title: "Draft"})
	require.NoError(t, err)

	_, err = env.enrollments.Enroll(ctx, student, draft.ID, "")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)

	_, err = env.enrollments.Enroll(ctx, nil, draft.ID, "")
	assert.ErrorIs(t, err, util.ErrUnauthenticated)
}

func TestMarkLessonCompleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, lessons := env.publishedCourse(t, instructor, 2)
	enrollment, err := env.enrollments.Enroll(ctx, student, course.ID, "")
	require.NoError(t, err)

	first, err := env.enrollments.MarkLessonComplete(ctx, student, enrollment.ID, lessons[0].ID)
	require.NoError(t, err)
	second, err := env.enrollments.MarkLessonComplete(ctx, student, enrollment.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := env.enrollments.ProgressRepo.CountByEnrollment(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	percent, err := env.enrollments.GetCompletionPercent(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, percent)
}

func TestCompletionReachesHundredOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, lessons := env.publishedCourse(t, instructor, 4)
	enrollment, err := env.enrollments.Enroll(ctx, student, course.ID, "pay_123")
	require.NoError(t, err)

	for _, lesson := range lessons[:3] {
		_, err := env.enrollments.MarkLessonComplete(ctx, student, enrollment.ID, lesson.ID)
		require.NoError(t, err)
	}
	percent, err := env.enrollments.GetCompletionPercent(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, percent)

	finishedAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	env.enrollments.now = func() time.Time { return finishedAt }

	resp, err := env.enrollments.CompleteLesson(ctx, student, enrollment.ID, lessons[3].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, resp.CompletionPercent)
	assert.Equal(t, model.EnrollmentCompleted, resp.Status)

	env.enrollments.now = func() time.Time { return finishedAt.Add(48 * time.Hour) }
	progress, err := env.enrollments.GetProgress(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.CompletionPercent)
	assert.Len(t, progress.CompletedLessonIDs, 4)
	require.NotNil(t, progress.CompletedAt)
	assert.True(t, finishedAt.Equal(*progress.CompletedAt))
}

func TestCompletionWithoutLessonsIsZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, _ := env.publishedCourse(t, instructor, 0)
	enrollment, err := env.enrollments.Enroll(ctx, student, course.ID, "")
	require.NoError(t, err)

	percent, err := env.enrollments.GetCompletionPercent(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, percent)
}

func TestMarkLessonCompleteGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	stranger := env.createUser(t, model.Student)
	course, _ := env.publishedCourse(t, instructor, 1)
	_, otherLessons := env.publishedCourse(t, instructor, 1)
	enrollment, err := env.enrollments.Enroll(ctx, student, course.ID, "")
	require.NoError(t, err)

	_, err = env.enrollments.MarkLessonComplete(ctx, student, enrollment.ID, otherLessons[0].ID)
	assert.ErrorIs(t, err, util.ErrLessonNotInCourse)

	_, err = env.enrollments.MarkLessonComplete(ctx, student, enrollment.ID, model.GenerateUUID())
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	_, err = env.enrollments.MarkLessonComplete(ctx, stranger, enrollment.ID, otherLessons[0].ID)
	assert.ErrorIs(t, err, util.ErrEnrollmentNotFound)
}

func TestCancelEnrollment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	stranger := env.createUser(t, model.Student)
	course, lessons := env.publishedCourse(t, instructor, 1)
	enrollment, err := env.enrollments.Enroll(ctx, student, course.ID, "")
	require.NoError(t, err)

	_, err = env.enrollments.CancelEnrollment(ctx, stranger, enrollment.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	cancelled, err := env.enrollments.CancelEnrollment(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCancelled, cancelled.Status)

	again, err := env.enrollments.CancelEnrollment(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCancelled, again.Status)

	_, err = env.enrollments.MarkLessonComplete(ctx, student, enrollment.ID, lessons[0].ID)
	assert.ErrorIs(t, err, util.ErrEnrollmentInactive)
}

func TestListMyEnrollments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	first, _ := env.publishedCourse(t, instructor, 1)
	second, _ := env.publishedCourse(t, instructor, 2)

	_, err := env.enrollments.Enroll(ctx, student, first.ID, "")
	require.NoError(t, err)
	_, err = env.enrollments.Enroll(ctx, student, second.ID, "")
	require.NoError(t, err)

	list, err := env.enrollments.ListMyEnrollments(ctx, student)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, e := range list {
		require.NotNil(t, e.Course)
		assert.Equal(t, e.CourseID, e.Course.ID)
	}

	status, err := env.enrollments.GetStatus(ctx, instructor, first.ID)
	require.NoError(t, err)
	assert.False(t, status.Enrolled)
}
