package controller

import (
	"codenest_backend/internal/model"
	"codenest_backend/internal/service"
	"codenest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
	MediaService  *service.MediaService
}

func NewCourseController(courseService *service.CourseService, mediaService *service.MediaService) *CourseController {
	return &CourseController{
		CourseService: courseService,
		MediaService:  mediaService,
	}
}

// ListCourses godoc
// @Summary 已发布课程列表
// @Tags 课程
// @Produce  json
// @Param   level query string false "难度" Enums(BEGINNER, INTERMEDIATE, ADVANCED)
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	p := util.ParsePagination(ctx, util.DefaultPageSize)
	courses, total, err := c.CourseService.ListPublished(ctx.Request.Context(), model.CourseLevel(ctx.Query("level")), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Page(ctx, courses, total, p)
}

// GetCourse godoc
// @Summary 课程详情
// @Description id 可以是课程 UUID 或 slug；草稿课程只有讲师本人和管理员可见
// @Tags 课程
// @Produce  json
// @Param   id path string true "课程ID或slug"
// @Success 200 {object} util.Response{data=service.CourseResponse} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.GetCourse(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// ListLessons godoc
// @Summary 课程课时列表
// @Description 未报名用户只能看到试看课时的内容
// @Tags 课程
// @Produce  json
// @Param   id path string true "课程ID或slug"
// @Success 200 {object} util.Response{data=[]service.LessonView} "成功"
// @Router /courses/{id}/lessons [get]
func (c *CourseController) ListLessons(ctx *gin.Context) {
	lessons, err := c.CourseService.ListLessons(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// ListInstructorCourses godoc
// @Summary 我创建的课程
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.CourseResponse} "成功"
// @Router /instructor/courses [get]
func (c *CourseController) ListInstructorCourses(ctx *gin.Context) {
	courses, err := c.CourseService.ListInstructorCourses(ctx.Request.Context(), util.CurrentUser(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateCourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 403 {object} util.Response "需要讲师权限"
// @Failure 409 {object} util.Response "slug 已被占用"
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	course, err := c.CourseService.CreateCourse(ctx.Request.Context(), util.CurrentUser(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   body body service.UpdateCourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 403 {object} util.Response "不是课程讲师"
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	var req service.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	course, err := c.CourseService.UpdateCourse(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Description 已有报名记录的课程不能删除
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 409 {object} util.Response "课程已有学员"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	if err := c.CourseService.DeleteCourse(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AddLesson godoc
// @Summary 新增课时
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Param   body body service.LessonRequest true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson} "创建成功"
// @Router /courses/{id}/lessons [post]
func (c *CourseController) AddLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	lesson, err := c.CourseService.AddLesson(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// UpdateLesson godoc
// @Summary 更新课时
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课时ID"
// @Param   body body service.LessonRequest true "课时信息"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Router /lessons/{id} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleBindError(ctx, err)
		return
	}

	lesson, err := c.CourseService.UpdateLesson(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary 删除课时
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课时ID"
// @Success 200 {object} util.Response "成功"
// @Router /lessons/{id} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	if err := c.CourseService.DeleteLesson(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadLessonVideo godoc
// @Summary 上传课时视频
// @Description 自动读取视频时长；课程没有封面时截取一帧作为封面
// @Tags 课程
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课时ID"
// @Param   file formData file true "视频文件 (mp4/mov/mkv/webm)"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Failure 400 {object} util.Response "文件类型或大小不合法"
// @Router /lessons/{id}/video [post]
func (c *CourseController) UploadLessonVideo(ctx *gin.Context) {
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

	lesson, err := c.MediaService.UploadLessonVideo(ctx.Request.Context(), util.CurrentUser(ctx), ctx.Param("id"), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}
