package model

import "strings"

type UserRole string

const (
	Student    UserRole = "STUDENT"
	Instructor UserRole = "INSTRUCTOR"
	Admin      UserRole = "ADMIN"
)

type AuthProvider string

const (
	ProviderLocal    AuthProvider = "LOCAL"
	ProviderExternal AuthProvider = "EXTERNAL"
)

// swagger:model User
type User struct {
	UUIDBase
	Email        string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash *string      `gorm:"size:255" json:"-"`
	FirstName    string       `gorm:"size:60;not null" json:"firstName"`
	LastName     string       `gorm:"size:60;not null" json:"lastName"`
	AvatarURL    *string      `gorm:"size:1024" json:"avatarUrl"`
	Bio          *string      `gorm:"type:text" json:"bio"`
	Role         UserRole     `gorm:"size:20;not null;default:'STUDENT'" json:"role"`
	Provider     AuthProvider `gorm:"size:20;not null;default:'LOCAL'" json:"provider"`
	ExternalID   *string      `gorm:"size:255;uniqueIndex" json:"-"`
	// 新建用户总是激活的，停用只能通过更新
	IsActive bool `gorm:"not null;default:true" json:"isActive"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == Admin
}

func (u *User) HasLocalPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CanManage 本人或管理员
func (u *User) CanManage(ownerID string) bool {
	if u == nil {
		return false
	}
	return u.ID == ownerID || u.Role == Admin
}

func ValidRole(r UserRole) bool {
	switch r {
	case Student, Instructor, Admin:
		return true
	}
	return false
}
