package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/repository"
	"codenest_backend/internal/util"
	"codenest_backend/pkg/logger"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateCourseRequest struct {
	Title            string             `json:"title" binding:"required,max=200"`
	Slug             string             `json:"slug" binding:"omitempty,max=220,slug"`
	Description      string             `json:"description"`
	ShortDescription string             `json:"shortDescription" binding:"max=500"`
	PriceCents       int64              `json:"priceCents" binding:"min=0"`
	Currency         string             `json:"currency" binding:"omitempty,len=3"`
	Level            model.CourseLevel  `json:"level" binding:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Status           model.CourseStatus `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	ThumbnailURL     *string            `json:"thumbnailUrl" binding:"omitempty,max=1024"`
	PreviewVideoURL  *string            `json:"previewVideoUrl" binding:"omitempty,max=1024"`
}

// UpdateCourseRequest 全量覆盖，slug 不可修改
type UpdateCourseRequest struct {
	Title            string             `json:"title" binding:"required,max=200"`
	Description      string             `json:"description"`
	ShortDescription string             `json:"shortDescription" binding:"max=500"`
	PriceCents       int64              `json:"priceCents" binding:"min=0"`
	Currency         string             `json:"currency" binding:"omitempty,len=3"`
	Level            model.CourseLevel  `json:"level" binding:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Status           model.CourseStatus `json:"status" binding:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
	ThumbnailURL     *string            `json:"thumbnailUrl" binding:"omitempty,max=1024"`
	PreviewVideoURL  *string            `json:"previewVideoUrl" binding:"omitempty,max=1024"`
}

type LessonRequest struct {
	Title           string  `json:"title" binding:"required,max=200"`
	Slug            string  `json:"slug" binding:"omitempty,max=220,slug"`
	Content         string  `json:"content"`
	VideoURL        *string `json:"videoUrl" binding:"omitempty,max=1024"`
	DurationMinutes int     `json:"durationMinutes" binding:"min=0"`
	OrderIndex      *int    `json:"orderIndex" binding:"omitempty,min=0"`
	IsFreePreview   bool    `json:"isFreePreview"`
}

type CourseResponse struct {
	model.Course
	Instructor      *PublicProfile `json:"instructor,omitempty"`
	EnrollmentCount int64          `json:"enrollmentCount"`
}

// LessonView 未报名用户看不到非试看课时的正文和视频
type LessonView struct {
	model.Lesson
	Locked bool `json:"locked"`
}

type CourseService struct {
	DB             *gorm.DB
	CourseRepo     *repository.CourseRepository
	LessonRepo     *repository.LessonRepository
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.ProgressRepository
	Users          *UserService
}

func NewCourseService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.ProgressRepository,
	users *UserService,
) *CourseService {
	return &CourseService{
		DB:             db,
		CourseRepo:     courseRepo,
		LessonRepo:     lessonRepo,
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
		Users:          users,
	}
}

func requireCourseOwner(caller *model.User, course *model.Course) error {
	if caller == nil {
		return util.ErrUnauthenticated
	}
	if !caller.CanManage(course.InstructorID) {
		return util.ErrPermissionDenied
	}
	return nil
}

func validateCourseFields(price int64, level model.CourseLevel, status model.CourseStatus) error {
	if price < 0 {
		return util.NewValidationError("price must not be negative")
	}
	if level != "" && !model.ValidCourseLevel(level) {
		return util.NewValidationError("unknown course level " + string(level))
	}
	if status != "" && !model.ValidCourseStatus(status) {
		return util.NewValidationError("unknown course status " + string(status))
	}
	return nil
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "EUR"
	}
	return c
}

func (s *CourseService) ListPublished(ctx context.Context, level model.CourseLevel, p util.Pagination) ([]CourseResponse, int64, error) {
	if level != "" && !model.ValidCourseLevel(level) {
		return nil, 0, util.NewValidationError("unknown course level " + string(level))
	}

	courses, total, err := s.CourseRepo.FindPublished(ctx, level, p.Offset(), p.Limit)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.toResponses(ctx, courses)
	if err != nil {
		return nil, 0, err
	}
	return resp, total, nil
}

func (s *CourseService) ListInstructorCourses(ctx context.Context, caller *model.User) ([]CourseResponse, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	courses, err := s.CourseRepo.FindByInstructor(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, courses)
}

// findVisible key 可以是 id 或 slug；未发布课程只对讲师本人和管理员可见
func (s *CourseService) findVisible(ctx context.Context, caller *model.User, key string) (*model.Course, error) {
	var course *model.Course
	var err error
	if model.IsUUID(key) {
		course, err = s.CourseRepo.FindByID(ctx, key)
	} else {
		course, err = s.CourseRepo.FindBySlug(ctx, key)
	}
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrCourseNotFound)
	}
	if !course.IsPublished() && !caller.CanManage(course.InstructorID) {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseService) GetCourse(ctx context.Context, caller *model.User, key string) (*CourseResponse, error) {
	course, err := s.findVisible(ctx, caller, key)
	if err != nil {
		return nil, err
	}
	resp, err := s.toResponses(ctx, []model.Course{*course})
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

func (s *CourseService) EnrollmentCount(ctx context.Context, courseID string) (int64, error) {
	return s.EnrollmentRepo.CountByCourse(ctx, courseID)
}

func (s *CourseService) CreateCourse(ctx context.Context, caller *model.User, req CreateCourseRequest) (*model.Course, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	if caller.Role != model.Instructor && caller.Role != model.Admin {
		return nil, util.ErrInstructorOnly
	}
	if err := validateCourseFields(req.PriceCents, req.Level, req.Status); err != nil {
		return nil, err
	}

	slug, err := s.resolveSlug(ctx, req.Slug, req.Title, s.CourseRepo.ExistsBySlug)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:            strings.TrimSpace(req.Title),
		Slug:             slug,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		PriceCents:       req.PriceCents,
		Currency:         normalizeCurrency(req.Currency),
		InstructorID:     caller.ID,
		Status:           model.CourseDraft,
		Level:            model.LevelBeginner,
		ThumbnailURL:     req.ThumbnailURL,
		PreviewVideoURL:  req.PreviewVideoURL,
	}
	if req.Status != "" {
		course.Status = req.Status
	}
	if req.Level != "" {
		course.Level = req.Level
	}

	if err := s.CourseRepo.Create(ctx, course); err != nil {
		return nil, util.DuplicateAs(err, util.ErrSlugTaken)
	}

	logger.Log.Info("Course created", zap.String("courseId", course.ID), zap.String("instructorId", caller.ID))
	return course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, caller *model.User, id string, req UpdateCourseRequest) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrCourseNotFound)
	}
	if err := requireCourseOwner(caller, course); err != nil {
		return nil, err
	}
	if err := validateCourseFields(req.PriceCents, req.Level, req.Status); err != nil {
		return nil, err
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.ShortDescription = req.ShortDescription
	course.PriceCents = req.PriceCents
	course.Currency = normalizeCurrency(req.Currency)
	course.ThumbnailURL = req.ThumbnailURL
	course.PreviewVideoURL = req.PreviewVideoURL
	if req.Level != "" {
		course.Level = req.Level
	}
	if req.Status != "" {
		course.Status = req.Status
	}

	if err := s.CourseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse 有报名记录的课程不能删除，只能归档
func (s *CourseService) DeleteCourse(ctx context.Context, caller *model.User, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		courses := s.CourseRepo.WithTx(tx)
		course, err := courses.FindByID(ctx, id)
		if err != nil {
			return util.NotFoundAs(err, util.ErrCourseNotFound)
		}
		if err := requireCourseOwner(caller, course); err != nil {
			return err
		}

		count, err := s.EnrollmentRepo.WithTx(tx).CountByCourse(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return util.ErrCourseHasLearners
		}

		if err := courses.Delete(ctx, id); err != nil {
			return err
		}
		logger.Log.Info("Course deleted", zap.String("courseId", id), zap.String("by", caller.ID))
		return nil
	})
}

func (s *CourseService) ListLessons(ctx context.Context, caller *model.User, courseKey string) ([]LessonView, error) {
	course, err := s.findVisible(ctx, caller, courseKey)
	if err != nil {
		return nil, err
	}

	lessons, err := s.LessonRepo.FindByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	fullAccess, err := s.hasFullAccess(ctx, caller, course)
	if err != nil {
		return nil, err
	}

	views := make([]LessonView, 0, len(lessons))
	for _, lesson := range lessons {
		view := LessonView{Lesson: lesson}
		if !fullAccess && !lesson.IsFreePreview {
			view.Content = ""
			view.VideoURL = nil
			view.Locked = true
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CourseService) hasFullAccess(ctx context.Context, caller *model.User, course *model.Course) (bool, error) {
	if caller == nil {
		return false, nil
	}
	if caller.CanManage(course.InstructorID) {
		return true, nil
	}
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(ctx, caller.ID, course.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return enrollment.CanProgress(), nil
}

// AddLesson 新增课时并同步 totalLessons
func (s *CourseService) AddLesson(ctx context.Context, caller *model.User, courseID string, req LessonRequest) (*model.Lesson, error) {
	var lesson *model.Lesson
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		courses := s.CourseRepo.WithTx(tx)
		lessons := s.LessonRepo.WithTx(tx)

		course, err := courses.FindByID(ctx, courseID)
		if err != nil {
			return util.NotFoundAs(err, util.ErrCourseNotFound)
		}
		if err := requireCourseOwner(caller, course); err != nil {
			return err
		}

		slug, err := s.resolveSlug(ctx, req.Slug, req.Title, lessons.ExistsBySlug)
		if err != nil {
			return err
		}

		order := course.TotalLessons
		if req.OrderIndex != nil {
			order = *req.OrderIndex
		}

		lesson = &model.Lesson{
			CourseID:        course.ID,
			Title:           strings.TrimSpace(req.Title),
			Slug:            slug,
			Content:         req.Content,
			VideoURL:        req.VideoURL,
			DurationMinutes: req.DurationMinutes,
			OrderIndex:      order,
			IsFreePreview:   req.IsFreePreview,
		}
		if err := lessons.Create(ctx, lesson); err != nil {
			return err
		}
		return courses.AdjustTotalLessons(ctx, course.ID, 1)
	})
	if err != nil {
		return nil, util.DuplicateAs(err, util.ErrSlugTaken)
	}
	return lesson, nil
}

// UpdateLesson 权限通过所属课程判断；slug 不变
func (s *CourseService) UpdateLesson(ctx context.Context, caller *model.User, lessonID string, req LessonRequest) (*model.Lesson, error) {
	lesson, _, err := s.AuthorizeLesson(ctx, caller, lessonID)
	if err != nil {
		return nil, err
	}

	lesson.Title = strings.TrimSpace(req.Title)
	lesson.Content = req.Content
	lesson.VideoURL = req.VideoURL
	lesson.DurationMinutes = req.DurationMinutes
	lesson.IsFreePreview = req.IsFreePreview
	if req.OrderIndex != nil {
		lesson.OrderIndex = *req.OrderIndex
	}

	if err := s.LessonRepo.Update(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// DeleteLesson 同时删除该课时的学习进度并同步 totalLessons
func (s *CourseService) DeleteLesson(ctx context.Context, caller *model.User, lessonID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lessons := s.LessonRepo.WithTx(tx)
		courses := s.CourseRepo.WithTx(tx)

		lesson, err := lessons.FindByID(ctx, lessonID)
		if err != nil {
			return util.NotFoundAs(err, util.ErrLessonNotFound)
		}
		course, err := courses.FindByID(ctx, lesson.CourseID)
		if err != nil {
			return util.NotFoundAs(err, util.ErrCourseNotFound)
		}
		if err := requireCourseOwner(caller, course); err != nil {
			return err
		}

		if err := s.ProgressRepo.WithTx(tx).DeleteByLessons(ctx, []string{lesson.ID}); err != nil {
			return err
		}
		if err := lessons.Delete(ctx, lesson.ID); err != nil {
			return err
		}
		return courses.AdjustTotalLessons(ctx, course.ID, -1)
	})
}

// AuthorizeLesson 返回课时及其课程，调用方必须是讲师本人或管理员
func (s *CourseService) AuthorizeLesson(ctx context.Context, caller *model.User, lessonID string) (*model.Lesson, *model.Course, error) {
	lesson, err := s.LessonRepo.FindByID(ctx, lessonID)
	if err != nil {
		return nil, nil, util.NotFoundAs(err, util.ErrLessonNotFound)
	}
	course, err := s.CourseRepo.FindByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, nil, util.NotFoundAs(err, util.ErrCourseNotFound)
	}
	if err := requireCourseOwner(caller, course); err != nil {
		return nil, nil, err
	}
	return lesson, course, nil
}

func (s *CourseService) resolveSlug(ctx context.Context, requested, title string, exists func(context.Context, string) (bool, error)) (string, error) {
	if requested == "" {
		return util.UniqueSlug(title), nil
	}
	if !util.IsSlug(requested) {
		return "", util.NewValidationError("slug must contain only lowercase letters, digits and hyphens")
	}
	taken, err := exists(ctx, requested)
	if err != nil {
		return "", err
	}
	if taken {
		return "", util.ErrSlugTaken
	}
	return requested, nil
}

func (s *CourseService) toResponses(ctx context.Context, courses []model.Course) ([]CourseResponse, error) {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.InstructorID)
	}
	instructors, err := s.Users.PublicProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		count, err := s.EnrollmentRepo.CountByCourse(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, CourseResponse{
			Course:          c,
			Instructor:      instructors[c.InstructorID],
			EnrollmentCount: count,
		})
	}
	return resp, nil
}
