package repository

import (
	"codenest_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: tx}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Create(course).Error
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	if err := r.DB.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) FindBySlug(ctx context.Context, slug string) (*model.Course, error) {
	var course model.Course
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Course{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// FindPublished 只返回已发布课程，level 为空时不过滤
func (r *CourseRepository) FindPublished(ctx context.Context, level model.CourseLevel, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Course{}).Where("status = ?", model.CoursePublished)
	if level != "" {
		query = query.Where("level = ?", level)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *CourseRepository) FindByInstructor(ctx context.Context, instructorID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Save(course).Error
}

// AdjustTotalLessons 原子增减课时数，不会小于 0
func (r *CourseRepository) AdjustTotalLessons(ctx context.Context, id string, delta int) error {
	return r.DB.WithContext(ctx).Model(&model.Course{}).
		Where("id = ?", id).
		UpdateColumn("total_lessons", gorm.Expr("CASE WHEN total_lessons + ? < 0 THEN 0 ELSE total_lessons + ? END", delta, delta)).
		Error
}

// Delete 先删课时再删课程，调用方负责放在事务中
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("course_id = ?", id).Delete(&model.Lesson{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Course{}, "id = ?", id).Error
}

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) WithTx(tx *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: tx}
}

func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.DB.WithContext(ctx).Create(lesson).Error
}

func (r *LessonRepository) FindByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.DB.WithContext(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *LessonRepository) FindByCourse(ctx context.Context, courseID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC, created_at ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *LessonRepository) IDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).Where("course_id = ?", courseID).Pluck("id", &ids).Error
	return ids, err
}

func (r *LessonRepository) Update(ctx context.Context, lesson *model.Lesson) error {
	return r.DB.WithContext(ctx).Save(lesson).Error
}

func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&model.Lesson{}, "id = ?", id).Error
}
