package model

type PostType string

const (
	PostDiscussion PostType = "DISCUSSION"
	PostQuestion   PostType = "QUESTION"
	PostShowcase   PostType = "SHOWCASE"
)

func ValidPostType(t PostType) bool {
	switch t {
	case PostDiscussion, PostQuestion, PostShowcase:
		return true
	}
	return false
}

type Post struct {
	UUIDBase
	AuthorID  string   `gorm:"type:varchar(36);index;not null" json:"authorId"`
	Title     string   `gorm:"size:200;not null" json:"title"`
	Content   string   `gorm:"type:text;not null" json:"content"`
	Type      PostType `gorm:"size:20;index;not null;default:'DISCUSSION'" json:"type"`
	LikeCount int      `gorm:"not null;default:0" json:"likeCount"`
}

func (Post) TableName() string {
	return "posts"
}

type PostComment struct {
	UUIDBase
	PostID   string `gorm:"type:varchar(36);index;not null" json:"postId"`
	AuthorID string `gorm:"type:varchar(36);index;not null" json:"authorId"`
	Content  string `gorm:"type:text;not null" json:"content"`
}

func (PostComment) TableName() string {
	return "post_comments"
}
