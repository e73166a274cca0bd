package model

type CourseStatus string

const (
	CourseDraft     CourseStatus = "DRAFT"
	CoursePublished CourseStatus = "PUBLISHED"
	CourseArchived  CourseStatus = "ARCHIVED"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "BEGINNER"
	LevelIntermediate CourseLevel = "INTERMEDIATE"
	LevelAdvanced     CourseLevel = "ADVANCED"
)

func ValidCourseStatus(s CourseStatus) bool {
	switch s {
	case CourseDraft, CoursePublished, CourseArchived:
		return true
	}
	return false
}

func ValidCourseLevel(l CourseLevel) bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// swagger:model Course
type Course struct {
	UUIDBase
	Title            string       `gorm:"size:200;not null" json:"title"`
	Slug             string       `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Description      string       `gorm:"type:text" json:"description"`
	ShortDescription string       `gorm:"size:500" json:"shortDescription"`
	PriceCents       int64        `gorm:"not null;default:0" json:"priceCents"`
	Currency         string       `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	InstructorID     string       `gorm:"type:varchar(36);index;not null" json:"instructorId"`
	Status           CourseStatus `gorm:"size:20;index;not null;default:'DRAFT'" json:"status"`
	Level            CourseLevel  `gorm:"size:20;index;not null;default:'BEGINNER'" json:"level"`
	ThumbnailURL     *string      `gorm:"size:1024" json:"thumbnailUrl"`
	PreviewVideoURL  *string      `gorm:"size:1024" json:"previewVideoUrl"`
	DurationMinutes  int          `gorm:"not null;default:0" json:"durationMinutes"`
	TotalLessons     int          `gorm:"not null;default:0" json:"totalLessons"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) IsPublished() bool {
	return c.Status == CoursePublished
}

// swagger:model Lesson
type Lesson struct {
	UUIDBase
	CourseID        string  `gorm:"type:varchar(36);index;not null" json:"courseId"`
	Title           string  `gorm:"size:200;not null" json:"title"`
	Slug            string  `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Content         string  `gorm:"type:text" json:"content"`
	VideoURL        *string `gorm:"size:1024" json:"videoUrl"`
	DurationMinutes int     `gorm:"not null;default:0" json:"durationMinutes"`
	OrderIndex      int     `gorm:"not null;default:0;index" json:"orderIndex"`
	IsFreePreview   bool    `gorm:"not null;default:false" json:"isFreePreview"`
}

func (Lesson) TableName() string {
	return "lessons"
}
