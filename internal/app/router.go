package app

import (
	"codenest_backend/docs"
	"codenest_backend/internal/middleware"
	"codenest_backend/internal/model"
	"codenest_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 所有 /api 请求都尝试解析身份，匿名请求继续往下走
	api := router.Group("/api")
	api.Use(middleware.Identity(a.services.auth))

	a.registerPublicRoutes(api, c)
	a.registerUserRoutes(api, c)
	a.registerCourseRoutes(api, c)
	a.registerEnrollmentRoutes(api, c)
	a.registerCommunityRoutes(api, c)
	a.registerForumRoutes(api, c)
	a.registerAdminRoutes(api, c)
}

func (a *App) registerPublicRoutes(api *gin.RouterGroup, c *controllers) {
	api.GET("/health", c.health.HealthCheck)

	auth := api.Group("/auth")
	{
		auth.POST("/register", c.auth.Register)
		auth.POST("/login", c.auth.Login)
		auth.POST("/external", c.auth.ExternalLogin)
		auth.POST("/google", c.auth.ExternalLogin)
		auth.POST("/refresh", c.auth.Refresh)
		auth.GET("/me", middleware.RequireAuth(), c.auth.Me)
	}
}

func (a *App) registerUserRoutes(api *gin.RouterGroup, c *controllers) {
	users := api.Group("/users")
	{
		users.GET("/:id", c.user.GetPublicProfile)

		me := users.Group("/me", middleware.RequireAuth())
		me.GET("", c.user.GetProfile)
		me.PUT("", c.user.UpdateProfile)
		me.POST("/avatar", c.user.UploadAvatar)
	}
}

func (a *App) registerCourseRoutes(api *gin.RouterGroup, c *controllers) {
	instructor := middleware.RoleMiddleware(model.Instructor)

	courses := api.Group("/courses")
	{
		courses.GET("", c.course.ListCourses)
		courses.GET("/:id", c.course.GetCourse)
		courses.GET("/:id/lessons", c.course.ListLessons)

		courses.POST("", instructor, c.course.CreateCourse)
		courses.PUT("/:id", instructor, c.course.UpdateCourse)
		courses.DELETE("/:id", instructor, c.course.DeleteCourse)
		courses.POST("/:id/lessons", instructor, c.course.AddLesson)
	}

	lessons := api.Group("/lessons", instructor)
	{
		lessons.PUT("/:id", c.course.UpdateLesson)
		lessons.DELETE("/:id", c.course.DeleteLesson)
		lessons.POST("/:id/video", c.course.UploadLessonVideo)
	}

	api.GET("/instructor/courses", instructor, c.course.ListInstructorCourses)
}

func (a *App) registerEnrollmentRoutes(api *gin.RouterGroup, c *controllers) {
	authed := middleware.RequireAuth()

	api.POST("/courses/:id/enroll", authed, c.enrollment.Enroll)
	api.GET("/courses/:id/enrollment", authed, c.enrollment.GetStatus)

	enrollments := api.Group("/enrollments", authed)
	{
		enrollments.GET("", c.enrollment.ListMine)
		enrollments.GET("/:id/progress", c.enrollment.GetProgress)
		enrollments.POST("/:id/lessons/:lessonId/complete", c.enrollment.CompleteLesson)
		enrollments.DELETE("/:id", c.enrollment.Cancel)
	}
}

func (a *App) registerCommunityRoutes(api *gin.RouterGroup, c *controllers) {
	community := api.Group("/community")
	{
		// 列表类：游客可访问
		community.GET("/posts", c.community.GetPosts)
		community.GET("/posts/:id", c.community.GetPost)
		community.GET("/posts/:id/comments", c.community.GetComments)

		// 交互类：强制认证
		authorized := community.Group("", middleware.RequireAuth())
		authorized.POST("/posts", c.community.CreatePost)
		authorized.PUT("/posts/:id", c.community.UpdatePost)
		authorized.DELETE("/posts/:id", c.community.DeletePost)
		authorized.POST("/posts/:id/like", c.community.LikePost)
		authorized.POST("/posts/:id/comments", c.community.CreateComment)
		authorized.PUT("/comments/:id", c.community.UpdateComment)
		authorized.DELETE("/comments/:id", c.community.DeleteComment)
	}
}

func (a *App) registerForumRoutes(api *gin.RouterGroup, c *controllers) {
	admin := middleware.RoleMiddleware(model.Admin)

	forum := api.Group("/forum")
	{
		forum.GET("/categories", c.forum.GetCategories)
		forum.GET("/categories/:slug/threads", c.forum.GetThreads)
		forum.GET("/threads/:id", c.forum.GetThread)
		forum.GET("/threads/:id/replies", c.forum.GetReplies)

		forum.POST("/categories", admin, c.forum.CreateCategory)
		forum.POST("/threads/:id/lock", admin, c.forum.LockThread)
		forum.POST("/threads/:id/unlock", admin, c.forum.UnlockThread)
		forum.POST("/threads/:id/pin", admin, c.forum.PinThread)
		forum.POST("/threads/:id/unpin", admin, c.forum.UnpinThread)

		authorized := forum.Group("", middleware.RequireAuth())
		authorized.POST("/categories/:slug/threads", c.forum.CreateThread)
		authorized.PUT("/threads/:id", c.forum.UpdateThread)
		authorized.DELETE("/threads/:id", c.forum.DeleteThread)
		authorized.POST("/threads/:id/replies", c.forum.CreateReply)
		authorized.PUT("/replies/:id", c.forum.UpdateReply)
		authorized.DELETE("/replies/:id", c.forum.DeleteReply)
		authorized.POST("/replies/:id/accept", c.forum.AcceptReply)
	}
}

func (a *App) registerAdminRoutes(api *gin.RouterGroup, c *controllers) {
	admin := api.Group("/admin", middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/users", c.user.ListUsers)
		admin.PUT("/users/:id/role", c.user.SetRole)
		admin.PUT("/users/:id/active", c.user.SetActive)
	}
}
