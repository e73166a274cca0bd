package controller

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/service"
	"codenest_backend/internal/util"
	"context"

	"github.com/gin-gonic/gin"
)

type ForumController struct {
	ForumService *service.ForumService
}

func NewForumController(forumService *service.ForumService) *ForumController {
	return &ForumController{ForumService: forumService}
}

// GetCategories godoc
// @Summary 论坛分类
// @Tags 论坛
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.ForumCategory} "成功"
// @Router /forum/categories [get]
func (c *ForumController) GetCategories(ctx *gin.Context) {
	categories, err := c.ForumService.GetCategories(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

// CreateCategory godoc
// @Summary 新建分类（管理员）
// @Tags 论坛
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CategoryRequest true "分类信息"
// @Success 201 {object} util.Response{data=model.ForumCategory} "创建成功"
// @Failure 409 {object} util.Response "slug 已被占用"
// @Router /forum/categories [post]
func (c *ForumController) CreateCategory(ctx *gin.Context) {
	var req service.CategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	category, err := c.ForumService.CreateCategory(ctx.Request.Context(), util.CurrentUser(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, category)
}

// GetThreads godoc
// @Summary 分类下的主题
// @Description 置顶主题在前，其余按最后活跃时间倒序
// @Tags 论坛
// @Produce  json
// @Param   slug path string true "分类slug"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /forum/categories/{slug}/threads [get]
func (c *ForumController) GetThreads(ctx *gin.Context) {
	p := util.ParsePagination(ctx, util.ForumThreadPageSize)
	threads, total, err := c.ForumService.GetThreads(ctx.Request.Context(), ctx.Param("slug"), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Page(ctx, threads, total, p)
}

// CreateThread godoc
// @Summary 发布主题
// @Tags 论坛
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   slug path string true "分类slug"
// @Param   body body service.ThreadRequest true "主题内容"
// @Success 201 {object} util.Response{data=model.ForumThread} "创建成功"
// @Router /forum/categories/{slug}/threads [post]
func (c *ForumController) CreateThread(ctx *gin.Context) {
	var req service.ThreadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	thread, err := c.ForumService.CreateThread(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("slug"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, thread)
}

// GetThread godoc
// @Summary 主题详情
// @Description 每次访问浏览数 +1
// @Tags 论坛
// @Produce  json
// @Param   id path string true "主题ID"
// @Success 200 {object} util.Response{data=service.ThreadResponse} "成功"
// @Router /forum/threads/{id} [get]
func (c *ForumController) GetThread(ctx *gin.Context) {
	thread, err := c.ForumService.GetThread(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, thread)
}

// UpdateThread godoc
// @Summary 编辑主题
// @Tags 论坛
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "主题ID"
// @Param   body body service.ThreadRequest true "主题内容"
// @Success 200 {object} util.Response{data=model.ForumThread} "成功"
// @Router /forum/threads/{id} [put]
func (c *ForumController) UpdateThread(ctx *gin.Context) {
	var req service.ThreadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	thread, err := c.ForumService.UpdateThread(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, thread)
}

// DeleteThread godoc
// @Summary 删除主题
// @Tags 论坛
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "主题ID"
// @Success 200 {object} util.Response "成功"
// @Router /forum/threads/{id} [delete]
func (c *ForumController) DeleteThread(ctx *gin.Context) {
	if err := c.ForumService.DeleteThread(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type moderation func(context.Context, *model.User, string) (*model.ForumThread, error)

func (c *ForumController) moderate(action moderation) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		thread, err := action(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"))
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		util.Success(ctx, thread)
	}
}

// LockThread godoc
// @Summary 锁定主题（管理员）
// @Tags 论坛
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "主题ID"
// @Success 200 {object} util.Response{data=model.ForumThread} "成功"
// @Router /forum/threads/{id}/lock [post]
func (c *ForumController) LockThread(ctx *gin.Context) {
	c.moderate(c.ForumService.LockThread)(ctx)
}

// UnlockThread godoc
// @Summary 解锁主题（管理员）
// @Tags 论坛
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "主题ID"
// @Success 200 {object} util.Response{data=model.ForumThread} "成功"
// @Router /forum/threads/{id}/unlock [post]
func (c *ForumController) UnlockThread(ctx *gin.Context) {
	c.moderate(c.ForumService.UnlockThread)(ctx)
}

// PinThread godoc
// @Summary 置顶主题（管理员）
// @Tags 论坛
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "主题ID"
// @Success 200 {object} util.Response{data=model.ForumThread} "成功"
// @Router /forum/threads/{id}/pin [post]
func (c *ForumController) PinThread(ctx *gin.Context) {
	c.moderate(c.ForumService.PinThread)(ctx)
}

// UnpinThread godoc
// @Summary 取消置顶（管理员）
// @Tags 论坛
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "主题ID"
// @Success 200 {object} util.Response{data=model.ForumThread} "成功"
// @Router /forum/threads/{id}/unpin [post]
func (c *ForumController) UnpinThread(ctx *gin.Context) {
	c.moderate(c.ForumService.UnpinThread)(ctx)
}

// GetReplies godoc
// @Summary 主题回复
// @Tags 论坛
// @Produce  json
// @Param   id path string true "主题ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量，默认 50"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /forum/threads/{id}/replies [get]
func (c *ForumController) GetReplies(ctx *gin.Context) {
	p := util.ParsePagination(ctx, util.ForumReplyPageSize)
	replies, total, err := c.ForumService.GetReplies(ctx.Request.Context(), ctx.Param("id"), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Page(ctx, replies, total, p)
}

// CreateReply godoc
// @Summary 回复主题
// @Tags 论坛
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "主题ID"
// @Param   body body service.ReplyRequest true "回复内容"
// @Success 201 {object} util.Response{data=model.ForumReply} "创建成功"
// @Failure 409 {object} util.Response "主题已锁定"
// @Router /forum/threads/{id}/replies [post]
func (c *ForumController) CreateReply(ctx *gin.Context) {
	var req service.ReplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	reply, err := c.ForumService.AddReply(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, reply)
}

// UpdateReply godoc
// @Summary 编辑回复
// @Tags 论坛
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "回复ID"
// @Param   body body service.ReplyRequest true "回复内容"
// @Success 200 {object} util.Response{data=model.ForumReply} "成功"
// @Router /forum/replies/{id} [put]
func (c *ForumController) UpdateReply(ctx *gin.Context) {
	var req service.ReplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	reply, err := c.ForumService.UpdateReply(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// DeleteReply godoc
// @Summary 删除回复
// @Tags 论坛
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "回复ID"
// @Success 200 {object} util.Response "成功"
// @Router /forum/replies/{id} [delete]
func (c *ForumController) DeleteReply(ctx *gin.Context) {
	if err := c.ForumService.DeleteReply(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AcceptReply godoc
// @Summary 采纳回复
// @Description 主题作者或管理员；同一主题只能有一个采纳
// @Tags 论坛
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "回复ID"
// @Success 200 {object} util.Response{data=model.ForumReply} "成功"
// @Router /forum/replies/{id}/accept [post]
func (c *ForumController) AcceptReply(ctx *gin.Context) {
	reply, err := c.ForumService.MarkAccepted(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}
