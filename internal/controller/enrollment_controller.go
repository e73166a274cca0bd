package controller

import (
	"codenest_backend/internal/service"
	"codenest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary 报名课程
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   paymentReference query string false "支付凭证号"
// @Success 201 {object} util.Response{data=model.Enrollment} "报名成功"
// @Failure 404 {object} util.Response "课程不存在或未发布"
// @Failure 409 {object} util.Response "已报名"
// @Router /courses/{id}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	enrollment, err := c.EnrollmentService.Enroll(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), ctx.Query("paymentReference"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// GetStatus godoc
// @Summary 查询报名状态
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=service.EnrollmentStatusResponse} "成功"
// @Router /courses/{id}/enrollment [get]
func (c *EnrollmentController) GetStatus(ctx *gin.Context) {
	status, err := c.EnrollmentService.GetStatus(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// ListMine godoc
// @Summary 我的报名
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.EnrollmentResponse} "成功"
// @Router /enrollments [get]
func (c *EnrollmentController) ListMine(ctx *gin.Context) {
	enrollments, err := c.EnrollmentService.ListMyEnrollments(ctx.Request.Context(), util.CurrentUser(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// GetProgress godoc
// @Summary 学习进度
// @Description 首次达到 100% 时报名状态自动变为 COMPLETED
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "报名ID"
// @Success 200 {object} util.Response{data=service.ProgressResponse} "成功"
// @Router /enrollments/{id}/progress [get]
func (c *EnrollmentController) GetProgress(ctx *gin.Context) {
	progress, err := c.EnrollmentService.GetProgress(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// CompleteLesson godoc
// @Summary 完成课时
// @Description 幂等，重复提交返回已有记录
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "报名ID"
// @Param   lessonId path string true "课时ID"
// @Success 200 {object} util.Response{data=service.LessonCompletionResponse} "成功"
// @Failure 409 {object} util.Response "报名已取消"
// @Router /enrollments/{id}/lessons/{lessonId}/complete [post]
func (c *EnrollmentController) CompleteLesson(ctx *gin.Context) {
	resp, err := c.EnrollmentService.CompleteLesson(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), ctx.Param("lessonId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// Cancel godoc
// @Summary 取消报名
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "报名ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Router /enrollments/{id} [delete]
func (c *EnrollmentController) Cancel(ctx *gin.Context) {
	enrollment, err := c.EnrollmentService.CancelEnrollment(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}
