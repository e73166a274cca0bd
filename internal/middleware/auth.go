package middleware

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdentityResolver 把 access token 解析成用户，失败时返回 nil
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accessToken string) *model.User
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Identity 只负责识别身份，不拦截请求；缺失或无效的 token 按匿名处理
func Identity(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user := resolver.ResolveIdentity(c.Request.Context(), token); user != nil {
				util.SetCurrentUser(c, user)
			}
		}
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if util.CurrentUser(c) == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RoleMiddleware 管理员拥有所有角色的权限
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.CurrentUser(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		allowed := user.IsAdmin()
		for _, role := range roles {
			if user.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
