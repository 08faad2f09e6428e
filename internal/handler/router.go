package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/middleware"
	"github.com/noah-isme/tuition-center-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix. Reports and
// Metrics may be nil when their features are disabled.
type Handlers struct {
	Auth              *AuthHandler
	Teachers          *TeacherHandler
	Students          *StudentHandler
	StudentAttendance *AttendanceHandler
	TeacherAttendance *AttendanceHandler
	Analytics         *AnalyticsHandler
	Homework          *HomeworkHandler
	Progress          *ProgressHandler
	Contributors      *ContributorHandler
	Uploads           *UploadHandler
	Reports           *ReportHandler
	Metrics           *MetricsHandler
}

// RouteOptions carries the middleware shared across route groups.
type RouteOptions struct {
	Authenticator middleware.Authenticator
	// CredentialLimit guards login and registration. Nil disables limiting.
	CredentialLimit gin.HandlerFunc
	Audit           middleware.AuditWriter
	Logger          *zap.Logger
}

// RegisterRoutes mounts the API on api.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, opts RouteOptions) {
	limit := opts.CredentialLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	api.POST("/auth/login", limit, h.Auth.Login)
	api.POST("/teacher/register", limit, h.Auth.Register)
	api.GET("/contributors", h.Contributors.List)
	if h.Reports != nil {
		api.GET("/reports/download/:token", h.Reports.Download)
	}

	authed := api.Group("", middleware.Authenticate(opts.Authenticator))
	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)
	authed.GET("/teachers/me", h.Teachers.Me)
	authed.PUT("/teachers/me", h.Teachers.UpdateMe)
	authed.POST("/uploads/avatar", h.Uploads.Avatar)
	authed.GET("/homework/recent", h.Homework.Recent)
	authed.GET("/homework/yesterday", h.Homework.Yesterday)

	verified := authed.Group("", middleware.RequireVerified())
	verified.GET("/teachers", h.Teachers.List)

	verified.GET("/students", h.Students.List)
	verified.POST("/students", h.Students.Create)
	verified.GET("/students/:id", h.Students.Get)
	verified.PUT("/students/:id", h.Students.Update)
	verified.DELETE("/students/:id", h.Students.Delete)
	verified.GET("/students/:id/progress", h.Progress.List)
	verified.POST("/students/:id/progress", h.Progress.Append)

	registerAttendance(verified.Group("/attendance"), h.StudentAttendance)
	registerAttendance(verified.Group("/teacher-attendance"), h.TeacherAttendance)

	verified.POST("/homework", h.Homework.Create)
	verified.GET("/homework", h.Homework.List)
	verified.GET("/homework/teacher/:teacherId", h.Homework.ListByTeacher)
	verified.PATCH("/homework/:id/status", h.Homework.UpdateStatus)
	verified.DELETE("/homework/:id", h.Homework.Delete)

	admin := authed.Group("", middleware.RequireAdmin())
	admin.GET("/admin/teachers", h.Teachers.ListPending)
	admin.PATCH("/teachers/:id/verify", h.Teachers.Verify)
	admin.DELETE("/teachers/:id", h.Teachers.Deactivate)

	admin.GET("/admin/attendance/overview", h.Analytics.Overview)
	admin.GET("/admin/attendance/students", h.Analytics.Students)
	admin.GET("/admin/attendance/teachers", h.Analytics.Teachers)
	admin.GET("/admin/attendance/trends", h.Analytics.Trends)
	admin.GET("/admin/attendance/low", h.Analytics.LowAttendance)

	admin.POST("/contributors", middleware.Audit(opts.Audit, models.AuditActionContributorCreate, "contributors", opts.Logger), h.Contributors.Create)
	admin.PUT("/contributors/:id", middleware.Audit(opts.Audit, models.AuditActionContributorUpdate, "contributors", opts.Logger), h.Contributors.Update)
	admin.DELETE("/contributors/:id", middleware.Audit(opts.Audit, models.AuditActionContributorDelete, "contributors", opts.Logger), h.Contributors.Delete)

	if h.Reports != nil {
		admin.POST("/admin/reports", h.Reports.Create)
		admin.GET("/admin/reports/:id", h.Reports.Status)
	}
	if h.Metrics != nil {
		admin.GET("/admin/metrics", h.Metrics.Summary)
	}
}

func registerAttendance(group *gin.RouterGroup, h *AttendanceHandler) {
	group.POST("/mark", h.Mark)
	group.PUT("/unmark", h.Unmark)
	group.PATCH("/:id", h.Update)
	group.GET("/stats/:id", h.Stats)
	group.GET("/history/:id", h.History)
}
