package service

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/repository"
	"codenest_backend/internal/util"
	"codenest_backend/pkg/logger"
	"codenest_backend/pkg/monitoring"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CourseSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	TotalLessons int     `json:"totalLessons"`
}

type EnrollmentResponse struct {
	model.Enrollment
	Course *CourseSummary `json:"course,omitempty"`
}

type EnrollmentStatusResponse struct {
	Enrolled   bool              `json:"enrolled"`
	Enrollment *model.Enrollment `json:"enrollment,omitempty"`
}

type ProgressResponse struct {
	EnrollmentID       string                 `json:"enrollmentId"`
	CourseID           string                 `json:"courseId"`
	Status             model.EnrollmentStatus `json:"status"`
	CompletionPercent  int                    `json:"completionPercent"`
	CompletedLessonIDs []string               `json:"completedLessonIds"`
	CompletedAt        *time.Time             `json:"completedAt"`
}

type LessonCompletionResponse struct {
	Progress          *model.LessonProgress  `json:"progress"`
	CompletionPercent int                    `json:"completionPercent"`
	Status            model.EnrollmentStatus `json:"status"`
}

type EnrollmentService struct {
	DB             *gorm.DB
	CourseRepo     *repository.CourseRepository
	LessonRepo     *repository.LessonRepository
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.ProgressRepository
	now            func() time.Time
}

func NewEnrollmentService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.ProgressRepository,
) *EnrollmentService {
	return &EnrollmentService{
		DB:             db,
		CourseRepo:     courseRepo,
		LessonRepo:     lessonRepo,
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
		now:            time.Now,
	}
}

// Enroll 并发报名由 (user_id, course_id) 唯一索引兜底
func (s *EnrollmentService) Enroll(ctx context.Context, caller *model.User, courseID string, paymentReference string) (*model.Enrollment, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}

	course, err := s.CourseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrCourseNotFound)
	}
	if !course.IsPublished() {
		return nil, util.ErrCourseNotFound
	}

	exists, err := s.EnrollmentRepo.ExistsByUserAndCourse(ctx, caller.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrAlreadyEnrolled
	}

	enrollment := &model.Enrollment{
		UserID:           caller.ID,
		CourseID:         course.ID,
		Status:           model.EnrollmentActive,
		EnrolledAt:       s.now(),
		PaymentReference: optionalString(strings.TrimSpace(paymentReference)),
	}
	if err := s.EnrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, util.DuplicateAs(err, util.ErrAlreadyEnrolled)
	}

	monitoring.EnrollmentEvents.WithLabelValues("enrolled").Inc()
	logger.Log.Info("User enrolled",
		zap.String("userId", caller.ID),
		zap.String("courseId", course.ID),
		zap.Bool("paid", enrollment.PaymentReference != nil),
	)
	return enrollment, nil
}

func (s *EnrollmentService) IsEnrolled(ctx context.Context, caller *model.User, courseID string) (bool, error) {
	if caller == nil {
		return false, nil
	}
	return s.EnrollmentRepo.ExistsByUserAndCourse(ctx, caller.ID, courseID)
}

func (s *EnrollmentService) GetStatus(ctx context.Context, caller *model.User, courseID string) (*EnrollmentStatusResponse, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(ctx, caller.ID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &EnrollmentStatusResponse{Enrolled: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &EnrollmentStatusResponse{Enrolled: true, Enrollment: enrollment}, nil
}

func (s *EnrollmentService) ListMyEnrollments(ctx context.Context, caller *model.User) ([]EnrollmentResponse, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	enrollments, err := s.EnrollmentRepo.FindByUser(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		item := EnrollmentResponse{Enrollment: e}
		course, err := s.CourseRepo.FindByID(ctx, e.CourseID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if course != nil {
			item.Course = &CourseSummary{
				ID:           course.ID,
				Title:        course.Title,
				Slug:         course.Slug,
				ThumbnailURL: course.ThumbnailURL,
				TotalLessons: course.TotalLessons,
			}
		}
		resp = append(resp, item)
	}
	return resp, nil
}

// findOwned 只有报名者本人（allowAdmin 时也包括管理员）可以访问
func findOwned(ctx context.Context, repo *repository.EnrollmentRepository, caller *model.User, id string, allowAdmin bool) (*model.Enrollment, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	enrollment, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrEnrollmentNotFound)
	}
	if enrollment.UserID == caller.ID || (allowAdmin && caller.IsAdmin()) {
		return enrollment, nil
	}
	return nil, util.ErrEnrollmentNotFound
}

// MarkLessonComplete 幂等：重复完成同一课时返回已有记录
func (s *EnrollmentService) MarkLessonComplete(ctx context.Context, caller *model.User, enrollmentID, lessonID string) (*model.LessonProgress, error) {
	var progress *model.LessonProgress
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := findOwned(ctx, s.EnrollmentRepo.WithTx(tx), caller, enrollmentID, false)
		if err != nil {
			return err
		}
		if !enrollment.CanProgress() {
			return util.ErrEnrollmentInactive
		}

		lesson, err := s.LessonRepo.WithTx(tx).FindByID(ctx, lessonID)
		if err != nil {
			return util.NotFoundAs(err, util.ErrLessonNotFound)
		}
		if lesson.CourseID != enrollment.CourseID {
			return util.ErrLessonNotInCourse
		}

		progressRepo := s.ProgressRepo.WithTx(tx)
		existing, err := progressRepo.FindByEnrollmentAndLesson(ctx, enrollment.ID, lesson.ID)
		if err == nil {
			progress = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		progress = &model.LessonProgress{
			EnrollmentID: enrollment.ID,
			LessonID:     lesson.ID,
			CompletedAt:  s.now(),
		}
		return progressRepo.Create(ctx, progress)
	})

	// 并发完成同一课时：另一个请求已经写入，直接读取
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.ProgressRepo.FindByEnrollmentAndLesson(ctx, enrollmentID, lessonID)
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// GetCompletionPercent 首次达到 100% 时把报名标记为 COMPLETED
func (s *EnrollmentService) GetCompletionPercent(ctx context.Context, caller *model.User, enrollmentID string) (int, error) {
	var percent int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := findOwned(ctx, s.EnrollmentRepo.WithTx(tx), caller, enrollmentID, true)
		if err != nil {
			return err
		}
		percent, err = s.completionPercent(ctx, tx, enrollment)
		return err
	})
	if err != nil {
		return 0, err
	}
	return percent, nil
}

func (s *EnrollmentService) completionPercent(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) (int, error) {
	course, err := s.CourseRepo.WithTx(tx).FindByID(ctx, enrollment.CourseID)
	if err != nil {
		return 0, util.NotFoundAs(err, util.ErrCourseNotFound)
	}
	if course.TotalLessons == 0 {
		return 0, nil
	}

	completed, err := s.ProgressRepo.WithTx(tx).CountByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return 0, err
	}

	percent := int(completed * 100 / int64(course.TotalLessons))
	if percent > 100 {
		percent = 100
	}

	if percent == 100 && enrollment.CompletedAt == nil && enrollment.Status == model.EnrollmentActive {
		now := s.now()
		enrollment.CompletedAt = &now
		enrollment.Status = model.EnrollmentCompleted
		if err := s.EnrollmentRepo.WithTx(tx).Update(ctx, enrollment); err != nil {
			return 0, err
		}
		monitoring.EnrollmentEvents.WithLabelValues("completed").Inc()
		logger.Log.Info("Course completed",
			zap.String("userId", enrollment.UserID),
			zap.String("courseId", enrollment.CourseID),
		)
	}
	return percent, nil
}

func (s *EnrollmentService) GetProgress(ctx context.Context, caller *model.User, enrollmentID string) (*ProgressResponse, error) {
	var resp *ProgressResponse
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := findOwned(ctx, s.EnrollmentRepo.WithTx(tx), caller, enrollmentID, true)
		if err != nil {
			return err
		}
		percent, err := s.completionPercent(ctx, tx, enrollment)
		if err != nil {
			return err
		}
		rows, err := s.ProgressRepo.WithTx(tx).FindByEnrollment(ctx, enrollment.ID)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.LessonID)
		}
		resp = &ProgressResponse{
			EnrollmentID:       enrollment.ID,
			CourseID:           enrollment.CourseID,
			Status:             enrollment.Status,
			CompletionPercent:  percent,
			CompletedLessonIDs: ids,
			CompletedAt:        enrollment.CompletedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CompleteLesson 记录完成并返回最新进度
func (s *EnrollmentService) CompleteLesson(ctx context.Context, caller *model.User, enrollmentID, lessonID string) (*LessonCompletionResponse, error) {
	progress, err := s.MarkLessonComplete(ctx, caller, enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}
	summary, err := s.GetProgress(ctx, caller, enrollmentID)
	if err != nil {
		return nil, err
	}
	return &LessonCompletionResponse{
		Progress:          progress,
		CompletionPercent: summary.CompletionPercent,
		Status:            summary.Status,
	}, nil
}

// CancelEnrollment 软取消，记录保留
func (s *EnrollmentService) CancelEnrollment(ctx context.Context, caller *model.User, enrollmentID string) (*model.Enrollment, error) {
	if caller == nil {
		return nil, util.ErrUnauthenticated
	}
	enrollment, err := s.EnrollmentRepo.FindByID(ctx, enrollmentID)
	if err != nil {
		return nil, util.NotFoundAs(err, util.ErrEnrollmentNotFound)
	}
	if !caller.CanManage(enrollment.UserID) {
		return nil, util.ErrPermissionDenied
	}

	switch enrollment.Status {
	case model.EnrollmentCancelled:
		return enrollment, nil
	case model.EnrollmentRefunded:
		return nil, util.ErrEnrollmentInactive
	}

	enrollment.Status = model.EnrollmentCancelled
	if err := s.EnrollmentRepo.Update(ctx, enrollment); err != nil {
		return nil, err
	}

	monitoring.EnrollmentEvents.WithLabelValues("cancelled").Inc()
	logger.Log.Info("Enrollment cancelled", zap.String("enrollmentId", enrollment.ID), zap.String("by", caller.ID))
	return enrollment, nil
}
