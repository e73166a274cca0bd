package util

import (
	"codenest_backend/internal/model"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "user"

func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser 返回本次请求解析出的用户，匿名请求返回 nil
func CurrentUser(c *gin.Context) *model.User {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}
