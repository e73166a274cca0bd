package util

import (
	"errors"

	"gorm.io/gorm"
)

type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindDuplicate
	KindConflict
	KindNotFound
	KindForbidden
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unexpected"
}

// AppError 业务错误，Message 可以直接返回给调用方
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func NewValidationError(message string) *AppError {
	return NewError(KindValidation, message)
}

var (
	ErrEmailRegistered    = NewError(KindDuplicate, "email already registered")
	ErrAlreadyEnrolled    = NewError(KindDuplicate, "already enrolled in this course")
	ErrSlugTaken          = NewError(KindDuplicate, "slug already in use")
	ErrInvalidCredentials = NewError(KindUnauthorized, "invalid email or password")
	ErrAccountDeactivated = NewError(KindUnauthorized, "account is deactivated")
	ErrInvalidToken       = NewError(KindUnauthorized, "invalid or expired token")
	ErrExternalIdentity   = NewError(KindUnauthorized, "external identity could not be verified")
	ErrUnauthenticated    = NewError(KindUnauthorized, "authentication required")
	ErrPermissionDenied   = NewError(KindForbidden, "permission denied")
	ErrAdminOnly          = NewError(KindForbidden, "admin role required")
	ErrInstructorOnly     = NewError(KindForbidden, "instructor or admin role required")
	ErrThreadLocked       = NewError(KindConflict, "thread is locked")
	ErrEnrollmentInactive = NewError(KindConflict, "enrollment is not active")
	ErrCourseHasLearners  = NewError(KindConflict, "course has enrollments and cannot be deleted")
	ErrLessonNotInCourse  = NewError(KindValidation, "lesson does not belong to this course")
	ErrUserNotFound       = NewError(KindNotFound, "user not found")
	ErrCourseNotFound     = NewError(KindNotFound, "course not found")
	ErrLessonNotFound     = NewError(KindNotFound, "lesson not found")
	ErrEnrollmentNotFound = NewError(KindNotFound, "enrollment not found")
	ErrPostNotFound       = NewError(KindNotFound, "post not found")
	ErrCommentNotFound    = NewError(KindNotFound, "comment not found")
	ErrCategoryNotFound   = NewError(KindNotFound, "category not found")
	ErrThreadNotFound     = NewError(KindNotFound, "thread not found")
	ErrReplyNotFound      = NewError(KindNotFound, "reply not found")
)

// KindOf 解析任意错误的类型，未知错误一律视为 Unexpected
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindUnexpected
}

// NotFoundAs 把 gorm 的 ErrRecordNotFound 换成具体的业务错误
func NotFoundAs(err error, target *AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

// DuplicateAs 把唯一索引冲突换成具体的业务错误
func DuplicateAs(err error, target *AppError) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return target
	}
	return err
}
