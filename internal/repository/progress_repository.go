package repository

import (
	"codenest_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

func (r *ProgressRepository) Create(ctx context.Context, progress *model.LessonProgress) error {
	return r.DB.WithContext(ctx).Create(progress).Error
}

func (r *ProgressRepository) FindByEnrollmentAndLesson(ctx context.Context, enrollmentID, lessonID string) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := r.DB.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) FindByEnrollment(ctx context.Context, enrollmentID string) ([]model.LessonProgress, error) {
	var progress []model.LessonProgress
	err := r.DB.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("completed_at ASC").
		Find(&progress).Error
	return progress, err
}

func (r *ProgressRepository) CountByEnrollment(ctx context.Context, enrollmentID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.LessonProgress{}).Where("enrollment_id = ?", enrollmentID).Count(&count).Error
	return count, err
}

func (r *ProgressRepository) DeleteByLessons(ctx context.Context, lessonIDs []string) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("lesson_id IN ?", lessonIDs).Delete(&model.LessonProgress{}).Error
}
