package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/handlers"
	authmw "github.com/coursehub/feedback-service/internal/middleware/auth"
	"github.com/coursehub/feedback-service/internal/models"
)

type Deps struct {
	AuthHandler     *handlers.AuthHandler
	CourseHandler   *handlers.CourseHandler
	FeedbackHandler *handlers.FeedbackHandler
	ProfileHandler  *handlers.ProfileHandler
	AdminHandler    *handlers.AdminHandler
	SearchHandler   *handlers.SearchHandler
	AuthMiddleware  *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	private := api.Group("", d.AuthMiddleware.RequireAuth)
	adminOnly := authmw.RequireRole(models.RoleAdmin)
	courseWrite := authmw.RequireCapability(authmw.ActionManageCourses)

	courses := private.Group("/courses")
	courses.GET("", d.CourseHandler.ListCourses)
	courses.GET("/search", d.SearchHandler.SearchCourses)
	courses.POST("", d.CourseHandler.CreateCourse, courseWrite)
	courses.PUT("/:id", d.CourseHandler.UpdateCourse, courseWrite)
	courses.DELETE("/:id", d.CourseHandler.DeleteCourse, courseWrite)

	feedback := private.Group("/feedback")
	feedback.POST("", d.FeedbackHandler.Submit)
	feedback.GET("/mine", d.FeedbackHandler.Mine)
	feedback.PUT("/:id", d.FeedbackHandler.Update)
	feedback.DELETE("/:id", d.FeedbackHandler.Delete)
	feedback.GET("", d.FeedbackHandler.ListAll, adminOnly)

	profile := private.Group("/profile")
	profile.GET("", d.ProfileHandler.Get)
	profile.PUT("", d.ProfileHandler.Update)
	profile.PUT("/password", d.ProfileHandler.ChangePassword)

	admin := private.Group("/admin", adminOnly)
	admin.GET("/stats", d.AdminHandler.Stats)
	admin.GET("/students", d.AdminHandler.ListStudents)
	admin.PUT("/students/:id/block", d.AdminHandler.BlockStudent)
	admin.PUT("/students/:id/unblock", d.AdminHandler.UnblockStudent)
	admin.DELETE("/students/:id", d.AdminHandler.DeleteStudent)
	admin.GET("/feedback-trends", d.AdminHandler.FeedbackTrends)
	admin.GET("/export-feedback", d.AdminHandler.ExportFeedback)
}
