package controller

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/service"
	"codenest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService  *service.UserService
	MediaService *service.MediaService
}

func NewUserController(userService *service.UserService, mediaService *service.MediaService) *UserController {
	return &UserController{
		UserService:  userService,
		MediaService: mediaService,
	}
}

// GetProfile godoc
// @Summary 获取个人资料
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserProfile} "成功"
// @Failure 401 {object} util.Response "未登录"
// @Router /users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	profile, err := c.UserService.GetProfile(ctx.Request.Context(), util.CurrentUser(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// UpdateProfile godoc
// @Summary 更新个人资料
// @Description 名字为空字符串时保持不变；简介、头像为空字符串时清空
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.UpdateProfileRequest true "资料"
// @Success 200 {object} util.Response{data=service.UserProfile} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req service.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	profile, err := c.UserService.UpdateProfile(ctx.Request.Context(), util.CurrentUser(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// UploadAvatar godoc
// @Summary 上传头像
// @Tags 用户
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "头像图片 (jpg/png/gif/webp, 最大 5MB)"
// @Success 200 {object} util.Response{data=service.UserProfile} "成功"
// @Failure 400 {object} util.Response "文件类型或大小不合法"
// @Router /users/me/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	profile, err := c.MediaService.UploadAvatar(ctx.Request.Context(), util.CurrentUser(ctx), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// GetPublicProfile godoc
// @Summary 查看用户公开资料
// @Tags 用户
// @Produce  json
// @Param   id path string true "用户ID"
// @Success 200 {object} util.Response{data=service.PublicProfile} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /users/{id} [get]
func (c *UserController) GetPublicProfile(ctx *gin.Context) {
	profile, err := c.UserService.GetPublicProfile(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// ListUsers godoc
// @Summary 用户列表（管理员）
// @Tags 管理员
// @Produce  json
// @Security ApiKeyAuth
// @Param   role query string false "角色筛选" Enums(STUDENT, INSTRUCTOR, ADMIN)
// @Param   q query string false "邮箱或姓名关键字"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Failure 403 {object} util.Response "需要管理员权限"
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	p := util.ParsePagination(ctx, util.DefaultPageSize)
	filter := service.UserFilter{
		Role:   model.UserRole(ctx.Query("role")),
		Search: ctx.Query("q"),
	}

	users, total, err := c.UserService.ListUsers(ctx.Request.Context(), util.CurrentUser(ctx), filter, p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Page(ctx, users, total, p)
}

type SetRoleRequest struct {
	Role model.UserRole `json:"role" binding:"required,oneof=STUDENT INSTRUCTOR ADMIN"`
}

// SetRole godoc
// @Summary 修改用户角色（管理员）
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "用户ID"
// @Param   body body SetRoleRequest true "新角色"
// @Success 200 {object} util.Response{data=service.UserProfile} "成功"
// @Router /admin/users/{id}/role [put]
func (c *UserController) SetRole(ctx *gin.Context) {
	var req SetRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	profile, err := c.UserService.SetRole(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req.Role)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive godoc
// @Summary 启用/停用用户（管理员）
// @Tags 管理员
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "用户ID"
// @Param   body body SetActiveRequest true "是否启用"
// @Success 200 {object} util.Response "成功"
// @Router /admin/users/{id}/active [put]
func (c *UserController) SetActive(ctx *gin.Context) {
	var req SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	if err := c.UserService.SetActive(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), *req.Active); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": ctx.Param("id"), "active": *req.Active})
}
