package mockapi

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"anycomp/internal/domain"
	"anycomp/internal/middleware"
	"anycomp/internal/pkg/jwt"
)

type RouterConfig struct {
	JWT         *jwt.Service
	Log         zerolog.Logger
	CORSOrigins []string
	UploadDir   string
}

// NewRouter mounts the REST API under /api/v1 and serves stored uploads.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorLogger(cfg.Log))
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.CORS(cfg.CORSOrigins...))
	r.MaxMultipartMemory = MaxFileSize

	if cfg.UploadDir != "" {
		r.Static(StaticURLBase, cfg.UploadDir)
	}

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", middleware.JWTAuth(cfg.JWT), h.Me)
	}

	// public reads
	v1.GET("/specialists", h.ListSpecialists)
	v1.GET("/specialists/:id", h.GetSpecialist)
	v1.GET("/media/specialist/:id", h.ListMedia)
	v1.GET("/service-offerings", h.ListOfferings)
	v1.GET("/service-offerings/:id", h.GetOffering)
	v1.GET("/platform-fees", h.ListFees)
	v1.GET("/platform-fees/:id", h.GetFee)

	protected := v1.Group("/")
	protected.Use(middleware.JWTAuth(cfg.JWT))

	editors := protected.Group("/")
	editors.Use(middleware.RequireClaimRole(domain.RoleAdmin, domain.RoleSpecialist))
	{
		editors.POST("/specialists", h.CreateSpecialist)
		editors.PATCH("/specialists/:id", h.UpdateSpecialist)
		editors.PATCH("/specialists/:id/publish", h.PublishSpecialist)
		editors.DELETE("/specialists/:id", h.DeleteSpecialist)

		editors.POST("/media/upload", h.UploadMedia)
		editors.PATCH("/media/:id/reorder", h.ReorderMedia)
		editors.DELETE("/media/:id", h.DeleteMedia)
	}

	admin := protected.Group("/")
	admin.Use(middleware.AdminOnly())
	{
		admin.POST("/service-offerings", h.CreateOffering)
		admin.PATCH("/service-offerings/:id", h.UpdateOffering)
		admin.DELETE("/service-offerings/:id", h.DeleteOffering)

		admin.POST("/platform-fees", h.CreateFee)
		admin.PATCH("/platform-fees/:id", h.UpdateFee)
		admin.DELETE("/platform-fees/:id", h.DeleteFee)

		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUser)
		admin.DELETE("/users/:id", h.DeleteUser)
	}

	return r
}
