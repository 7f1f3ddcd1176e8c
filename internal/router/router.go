package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/campushq/records-api/internal/handler"
	"github.com/campushq/records-api/internal/middleware"
	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/internal/service"
	"github.com/campushq/records-api/pkg/config"
	"github.com/campushq/records-api/pkg/logger"
	corsmiddleware "github.com/campushq/records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/records-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Students   *handler.StudentHandler
	Faculty    *handler.FacultyHandler
	Exams      *handler.ExamHandler
	Fees       *handler.FeeHandler
	Admissions *handler.AdmissionHandler
	Grievances *handler.GrievanceHandler
	Leaves     *handler.LeaveHandler
	Theses     *handler.ThesisHandler
	Audit      *handler.AuditHandler
	Health     *handler.HealthHandler
	Files      *handler.FilesHandler
}

// Services groups the cross-cutting services the router needs for middleware.
type Services struct {
	Auth    *service.AuthService
	Audits  *service.AuditService
	Metrics *service.MetricsService
}

// New assembles the gin engine: global middleware, public endpoints and the
// versioned API groups with their auth, RBAC and audit chains.
func New(cfg *config.Config, logr *zap.Logger, h Handlers, s Services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(s.Metrics))

	r.GET("/health", h.Health.Check)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authRequired := middleware.JWT(s.Auth)
	admin := middleware.RequireRoles(models.RoleAdmin)
	adminOrStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	adminOrFaculty := middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty)
	staffOrFaculty := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleFaculty)
	committee := middleware.RequireRoles(models.RoleAdmin, models.RoleGrievanceCommittee)

	api := r.Group(cfg.APIPrefix)

	// Signed-token downloads carry their own authorization.
	api.GET("/files/:token", h.Files.Download)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
		auth.POST("/logout", authRequired, h.Auth.Logout)
		auth.POST("/change-password", authRequired, h.Auth.ChangePassword)
		auth.GET("/me", authRequired, h.Auth.Me)
	}

	students := api.Group("/students", authRequired, middleware.Audit(s.Audits, logr, "students"))
	{
		students.GET("", staffOrFaculty, h.Students.List)
		students.GET("/me", h.Students.Me)
		students.GET("/:id", staffOrFaculty, h.Students.Get)
		students.POST("", adminOrStaff, h.Students.Create)
		students.PUT("/:id", adminOrStaff, h.Students.Update)
		students.DELETE("/:id", admin, h.Students.Delete)
	}

	faculty := api.Group("/faculty", authRequired, middleware.Audit(s.Audits, logr, "faculty"))
	{
		faculty.GET("", h.Faculty.List)
		faculty.GET("/:id", h.Faculty.Get)
		faculty.POST("", admin, h.Faculty.Create)
		faculty.PUT("/:id", admin, h.Faculty.Update)
		faculty.DELETE("/:id", admin, h.Faculty.Delete)
	}

	exams := api.Group("/exams", authRequired, middleware.Audit(s.Audits, logr, "exams"))
	{
		exams.GET("", h.Exams.List)
		exams.GET("/:id", h.Exams.Get)
		exams.POST("", adminOrFaculty, h.Exams.Create)
		exams.PUT("/:id", adminOrFaculty, h.Exams.Update)
		exams.PATCH("/:id/status", adminOrFaculty, h.Exams.UpdateStatus)
		exams.POST("/:id/materials", adminOrFaculty, h.Exams.UploadMaterials)
		exams.DELETE("/:id", admin, h.Exams.Delete)
	}

	fees := api.Group("/fees", authRequired, middleware.Audit(s.Audits, logr, "fees"))
	{
		fees.GET("", h.Fees.List)
		fees.GET("/:id", h.Fees.Get)
		fees.GET("/:id/receipt", h.Fees.Receipt)
		fees.POST("", adminOrStaff, h.Fees.Create)
		fees.PUT("/:id", adminOrStaff, h.Fees.Update)
		fees.POST("/:id/payments", adminOrStaff, h.Fees.RecordPayment)
		fees.POST("/:id/late-fee", adminOrStaff, h.Fees.ApplyLateFee)
		fees.POST("/:id/waive", adminOrStaff, h.Fees.Waive)
		fees.POST("/:id/overdue", adminOrStaff, h.Fees.MarkOverdue)
		fees.DELETE("/:id", admin, h.Fees.Delete)
	}

	admissions := api.Group("/admissions", middleware.Audit(s.Audits, logr, "admissions"))
	{
		// Applicants have no account yet; submission is open.
		admissions.POST("", h.Admissions.Submit)
		admissions.POST("/bulk", authRequired, adminOrStaff, h.Admissions.BulkSubmit)
		admissions.GET("", authRequired, adminOrStaff, h.Admissions.List)
		admissions.GET("/:id", authRequired, adminOrStaff, h.Admissions.Get)
		admissions.PATCH("/:id/status", authRequired, adminOrStaff, h.Admissions.UpdateStatus)
		admissions.POST("/:id/enroll", authRequired, adminOrStaff, h.Admissions.Enroll)
		admissions.POST("/:id/documents", authRequired, adminOrStaff, h.Admissions.UploadDocuments)
	}

	grievances := api.Group("/grievances", authRequired, middleware.Audit(s.Audits, logr, "grievances"))
	{
		grievances.GET("", h.Grievances.List)
		grievances.GET("/:id", h.Grievances.Get)
		grievances.POST("", h.Grievances.Submit)
		grievances.PUT("/:id", h.Grievances.Update)
		grievances.POST("/:id/assign", committee, h.Grievances.Assign)
		grievances.PATCH("/:id/status", committee, h.Grievances.UpdateStatus)
		grievances.POST("/:id/attachments", h.Grievances.UploadAttachments)
		grievances.DELETE("/:id", h.Grievances.Delete)
	}

	leaves := api.Group("/leaves", authRequired, middleware.Audit(s.Audits, logr, "leaves"))
	{
		leaves.GET("", h.Leaves.List)
		leaves.GET("/:id", h.Leaves.Get)
		leaves.POST("", h.Leaves.Apply)
		leaves.POST("/:id/approve", adminOrStaff, h.Leaves.Approve)
		leaves.POST("/:id/reject", adminOrStaff, h.Leaves.Reject)
		leaves.POST("/:id/cancel", h.Leaves.Cancel)
		leaves.POST("/:id/attachments", h.Leaves.UploadAttachments)
	}

	theses := api.Group("/thesis", authRequired, middleware.Audit(s.Audits, logr, "thesis"))
	{
		theses.GET("", h.Theses.List)
		theses.GET("/:id", h.Theses.Get)
		theses.POST("", h.Theses.Create)
		theses.PUT("/:id", h.Theses.Update)
		theses.POST("/:id/submit", h.Theses.Submit)
		theses.PATCH("/:id/status", adminOrFaculty, h.Theses.Decide)
		theses.POST("/:id/documents", h.Theses.UploadDocuments)
		theses.DELETE("/:id", h.Theses.Delete)
	}

	api.GET("/audit", authRequired, admin, h.Audit.List)

	return r
}
