package controller

import (
	"codenest_backend/internal/service"
	"codenest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
	UserService *service.UserService
}

func NewAuthController(authService *service.AuthService, userService *service.UserService) *AuthController {
	return &AuthController{
		AuthService: authService,
		UserService: userService,
	}
}

// Register godoc
// @Summary 注册新用户
// @Description 使用邮箱和密码注册，新用户角色为 STUDENT
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=service.AuthResponse} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	resp, err := c.AuthService.Register(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, resp)
}

// Login godoc
// @Summary 用户登录
// @Description 使用邮箱和密码登录，返回 access token 和 refresh token
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.LoginRequest true "登录凭证"
// @Success 200 {object} util.Response{data=service.AuthResponse} "登录成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "邮箱或密码错误 / 账号已停用"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	resp, err := c.AuthService.Login(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// ExternalLogin godoc
// @Summary 第三方登录
// @Description 校验第三方 ID Token（Google），首次登录自动创建账号或关联同邮箱账号
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.ExternalLoginRequest true "ID Token"
// @Success 200 {object} util.Response{data=service.AuthResponse} "登录成功"
// @Failure 401 {object} util.Response "ID Token 无效"
// @Router /auth/external [post]
func (c *AuthController) ExternalLogin(ctx *gin.Context) {
	var req service.ExternalLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	resp, err := c.AuthService.LoginWithExternalIdentity(ctx.Request.Context(), req.IDToken)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// Refresh godoc
// @Summary 刷新 token
// @Description 使用 refresh token 换取新的 access/refresh token
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.RefreshRequest true "refresh token"
// @Success 200 {object} util.Response{data=service.AuthResponse} "刷新成功"
// @Failure 401 {object} util.Response "token 无效或已过期"
// @Router /auth/refresh [post]
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req service.RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	resp, err := c.AuthService.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// Me godoc
// @Summary 当前登录用户
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserProfile} "成功"
// @Failure 401 {object} util.Response "未登录"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	profile, err := c.UserService.GetProfile(ctx.Request.Context(), util.CurrentUser(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}
