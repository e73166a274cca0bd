package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
	EnrollmentRefunded  EnrollmentStatus = "REFUNDED"
)

// Enrollment (user_id, course_id) 唯一索引保证并发报名只成功一次
// swagger:model Enrollment
type Enrollment struct {
	UUIDBase
	UserID           string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID         string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_user_course;index" json:"courseId"`
	Status           EnrollmentStatus `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	EnrolledAt       time.Time        `gorm:"not null" json:"enrolledAt"`
	CompletedAt      *time.Time       `json:"completedAt"`
	PaymentReference *string          `gorm:"size:255" json:"paymentReference,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// CanProgress 已取消或退款的报名不能再记录进度
func (e *Enrollment) CanProgress() bool {
	return e.Status == EnrollmentActive || e.Status == EnrollmentCompleted
}

// swagger:model LessonProgress
type LessonProgress struct {
	UUIDBase
	EnrollmentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_enrollment_lesson" json:"enrollmentId"`
	LessonID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_enrollment_lesson;index" json:"lessonId"`
	CompletedAt  time.Time `gorm:"not null" json:"completedAt"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
