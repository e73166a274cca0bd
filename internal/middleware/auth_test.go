package middleware

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubResolver map[string]*model.User

func (s stubResolver) ResolveIdentity(ctx context.Context, token string) *model.User {
	return s[token]
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	resolver := stubResolver{
		"student-token": {UUIDBase: model.UUIDBase{ID: "s1"}, Role: model.Student},
		"instructor-token": {UUIDBase: model.UUIDBase{ID: "i1"}, Role: model.Instructor},
		"admin-token":   {UUIDBase: model.UUIDBase{ID: "a1"}, Role: model.Admin},
	}
	chain := append([]gin.HandlerFunc{Identity(resolver)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		id := ""
		if u := util.CurrentUser(c); u != nil {
			id = u.ID
		}
		c.String(http.StatusOK, id)
	})
	r.GET("/", chain...)
	return r
}

func do(r http.Handler, authorization, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityIsPermissive(t *testing.T) {
	r := newRouter()

	w := do(r, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, "Bearer garbage", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, "bearer student-token", "")
	assert.Equal(t, "s1", w.Body.String())

	// 只认 Authorization 头，查询参数里的 token 不生效
	w = do(r, "", "?token=instructor-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, "Bearer instructor-token", "")
	assert.Equal(t, "i1", w.Body.String())
}

func TestRequireAuth(t *testing.T) {
	r := newRouter(RequireAuth())

	assert.Equal(t, http.StatusUnauthorized, do(r, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer garbage", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer student-token", "").Code)
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter(RoleMiddleware(model.Instructor))

	cases := []struct {
		header string
		code   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer student-token", http.StatusForbidden},
		{"Bearer instructor-token", http.StatusOK},
		{"Bearer admin-token", http.StatusOK},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, do(r, tc.header, "").Code, tc.header)
	}
}
