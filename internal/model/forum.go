package model

import "time"

type ForumCategory struct {
	UUIDBase
	Name        string  `gorm:"size:100;not null" json:"name"`
	Slug        string  `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description string  `gorm:"size:500" json:"description"`
	IconURL     *string `gorm:"size:1024" json:"iconUrl"`
	OrderIndex  int     `gorm:"not null;default:0" json:"orderIndex"`
}

func (ForumCategory) TableName() string {
	return "forum_categories"
}

// ForumThread ReplyCount 与 LastActivityAt 是冗余字段，只在回复增删时维护
type ForumThread struct {
	UUIDBase
	CategoryID     string    `gorm:"type:varchar(36);index;not null" json:"categoryId"`
	AuthorID       string    `gorm:"type:varchar(36);index;not null" json:"authorId"`
	Title          string    `gorm:"size:200;not null" json:"title"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsPinned       bool      `gorm:"not null;default:false" json:"isPinned"`
	IsLocked       bool      `gorm:"not null;default:false" json:"isLocked"`
	ViewCount      int       `gorm:"not null;default:0" json:"viewCount"`
	ReplyCount     int       `gorm:"not null;default:0" json:"replyCount"`
	LastActivityAt time.Time `gorm:"index;not null" json:"lastActivityAt"`
}

func (ForumThread) TableName() string {
	return "forum_threads"
}

type ForumReply struct {
	UUIDBase
	ThreadID   string `gorm:"type:varchar(36);index;not null" json:"threadId"`
	AuthorID   string `gorm:"type:varchar(36);index;not null" json:"authorId"`
	Content    string `gorm:"type:text;not null" json:"content"`
	IsAccepted bool   `gorm:"not null;default:false" json:"isAccepted"`
	LikeCount  int    `gorm:"not null;default:0" json:"likeCount"`
}

func (ForumReply) TableName() string {
	return "forum_replies"
}
