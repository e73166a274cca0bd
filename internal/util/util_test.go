package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"sentinel", ErrAlreadyEnrolled, KindDuplicate},
		{"wrapped sentinel", fmt.Errorf("enroll: %w", ErrThreadLocked), KindConflict},
		{"record not found", gorm.ErrRecordNotFound, KindNotFound},
		{"validation", NewValidationError("bad level"), KindValidation},
		{"plain error", errors.New("connection reset"), KindUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNotFoundAndDuplicateTranslation(t *testing.T) {
	assert.ErrorIs(t, NotFoundAs(gorm.ErrRecordNotFound, ErrCourseNotFound), ErrCourseNotFound)
	assert.ErrorIs(t, DuplicateAs(gorm.ErrDuplicatedKey, ErrAlreadyEnrolled), ErrAlreadyEnrolled)

	other := errors.New("boom")
	assert.Same(t, other, NotFoundAs(other, ErrCourseNotFound))
}

func TestHandleErrorMapsKindsUniformly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err         error
		wantStatus  int
		wantMessage string
	}{
		{ErrEmailRegistered, http.StatusConflict, "email already registered"},
		{ErrThreadLocked, http.StatusConflict, "thread is locked"},
		{ErrPermissionDenied, http.StatusForbidden, "permission denied"},
		{ErrInvalidToken, http.StatusUnauthorized, "invalid or expired token"},
		{fmt.Errorf("load: %w", ErrCourseNotFound), http.StatusNotFound, "course not found"},
		{NewValidationError("price must not be negative"), http.StatusBadRequest, "price must not be negative"},
		{errors.New("dial tcp 10.0.0.1: refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMessage, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleError(c, tt.err)

			require.Equal(t, tt.wantStatus, w.Code)
			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, tt.wantStatus, body.Code)
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "intro-to-go-part-1", Slugify("Intro to Go, Part 1"))
	assert.Equal(t, "creme-brulee", Slugify("  Crème Brûlée!! "))
	assert.Equal(t, "", Slugify("!!!"))
	assert.True(t, IsSlug("go-basics-101"))
	assert.False(t, IsSlug("Go Basics"))
	assert.False(t, IsSlug("trailing-"))

	s := UniqueSlug("Go Basics")
	assert.True(t, IsSlug(s), s)
	assert.Regexp(t, `^go-basics-[0-9a-f]{8}$`, s)
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 20)
	assert.Equal(t, Pagination{Page: 1, Limit: 20}, p)
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 500, 20)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, 2*MaxPageSize, p.Offset())
}

func TestParseProbeOutput(t *testing.T) {
	out := `{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":1280,"height":720}],"format":{"duration":"125.4"}}`
	info, err := parseProbeOutput(out)
	require.NoError(t, err)
	assert.Equal(t, 1280, info.Width)
	assert.Equal(t, 720, info.Height)
	assert.Equal(t, 3, info.DurationMinutes())

	_, err = parseProbeOutput("not json")
	assert.Error(t, err)
}
