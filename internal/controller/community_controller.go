package controller

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/service"
	"codenest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CommunityController struct {
	CommunityService *service.CommunityService
}

func NewCommunityController(communityService *service.CommunityService) *CommunityController {
	return &CommunityController{CommunityService: communityService}
}

// GetPosts godoc
// @Summary 帖子列表
// @Tags 社区
// @Produce  json
// @Param   type query string false "帖子类型" Enums(DISCUSSION, QUESTION, SHOWCASE)
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /community/posts [get]
func (c *CommunityController) GetPosts(ctx *gin.Context) {
	p := util.ParsePagination(ctx, util.DefaultPageSize)
	posts, total, err := c.CommunityService.GetPosts(ctx.Request.Context(), model.PostType(ctx.Query("type")), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Page(ctx, posts, total, p)
}

// GetPost godoc
// @Summary 帖子详情
// @Tags 社区
// @Produce  json
// @Param   id path string true "帖子ID"
// @Success 200 {object} util.Response{data=service.PostResponse} "成功"
// @Failure 404 {object} util.Response "帖子不存在"
// @Router /community/posts/{id} [get]
func (c *CommunityController) GetPost(ctx *gin.Context) {
	post, err := c.CommunityService.GetPost(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// CreatePost godoc
// @Summary 发布帖子
// @Tags 社区
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.PostRequest true "帖子内容"
// @Success 201 {object} util.Response{data=model.Post} "创建成功"
// @Router /community/posts [post]
func (c *CommunityController) CreatePost(ctx *gin.Context) {
	var req service.PostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	post, err := c.CommunityService.CreatePost(ctx.Request.Context(), util.CurrentUser(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, post)
}

// UpdatePost godoc
// @Summary 编辑帖子
// @Description 作者本人或管理员
// @Tags 社区
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "帖子ID"
// @Param   body body service.PostRequest true "帖子内容"
// @Success 200 {object} util.Response{data=model.Post} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /community/posts/{id} [put]
func (c *CommunityController) UpdatePost(ctx *gin.Context) {
	var req service.PostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	post, err := c.CommunityService.UpdatePost(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// DeletePost godoc
// @Summary 删除帖子
// @Tags 社区
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "帖子ID"
// @Success 200 {object} util.Response "成功"
// @Router /community/posts/{id} [delete]
func (c *CommunityController) DeletePost(ctx *gin.Context) {
	if err := c.CommunityService.DeletePost(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// LikePost godoc
// @Summary 点赞帖子
// @Tags 社区
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "帖子ID"
// @Success 200 {object} util.Response{data=model.Post} "成功"
// @Router /community/posts/{id}/like [post]
func (c *CommunityController) LikePost(ctx *gin.Context) {
	post, err := c.CommunityService.LikePost(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// GetComments godoc
// @Summary 帖子评论
// @Tags 社区
// @Produce  json
// @Param   id path string true "帖子ID"
// @Success 200 {object} util.Response{data=[]service.CommentResponse} "成功"
// @Router /community/posts/{id}/comments [get]
func (c *CommunityController) GetComments(ctx *gin.Context) {
	comments, err := c.CommunityService.GetComments(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, comments)
}

// CreateComment godoc
// @Summary 发表评论
// @Tags 社区
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "帖子ID"
// @Param   body body service.CommentRequest true "评论内容"
// @Success 201 {object} util.Response{data=model.PostComment} "创建成功"
// @Router /community/posts/{id}/comments [post]
func (c *CommunityController) CreateComment(ctx *gin.Context) {
	var req service.CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	comment, err := c.CommunityService.AddComment(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, comment)
}

// UpdateComment godoc
// @Summary 编辑评论
// @Tags 社区
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "评论ID"
// @Param   body body service.CommentRequest true "评论内容"
// @Success 200 {object} util.Response{data=model.PostComment} "成功"
// @Router /community/comments/{id} [put]
func (c *CommunityController) UpdateComment(ctx *gin.Context) {
	var req service.CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	comment, err := c.CommunityService.UpdateComment(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, comment)
}

// DeleteComment godoc
// @Summary 删除评论
// @Tags 社区
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "评论ID"
// @Success 200 {object} util.Response "成功"
// @Router /community/comments/{id} [delete]
func (c *CommunityController) DeleteComment(ctx *gin.Context) {
	if err := c.CommunityService.DeleteComment(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
