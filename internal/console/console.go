// Package console is the admin front-end served as JSON views. It owns one
// user session and talks to the REST backend through apiclient.
package console

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"anycomp/internal/apiclient"
	"anycomp/internal/domain"
	"anycomp/internal/draft"
	"anycomp/internal/events"
	"anycomp/internal/middleware"
	"anycomp/internal/nav"
	"anycomp/internal/pkg/response"
	"anycomp/internal/pkg/validator"
	"anycomp/internal/publish"
	"anycomp/internal/querycache"
	"anycomp/internal/session"
)

type Config struct {
	Session     *session.Store
	Client      *apiclient.Client
	Cache       querycache.Cache
	Hub         *events.Hub
	Log         zerolog.Logger
	Draft       draft.Options
	CORSOrigins []string
}

type Server struct {
	session *session.Store
	client  *apiclient.Client
	cache   querycache.Cache
	hub     *events.Hub
	gate    *publish.Gate
	log     zerolog.Logger
	opts    draft.Options
	origins []string

	mu       sync.Mutex
	creation *draft.Session
	edits    map[string]*draft.Session
}

// New builds the server and hooks it to the client so a rejected token also
// drops the open forms and every cached read of the previous user.
func New(cfg Config) *Server {
	s := &Server{
		session: cfg.Session,
		client:  cfg.Client,
		cache:   cfg.Cache,
		hub:     cfg.Hub,
		gate:    publish.NewGate(cfg.Client.Specialists, cfg.Cache, cfg.Log),
		log:     cfg.Log,
		opts:    cfg.Draft,
		origins: cfg.CORSOrigins,
		edits:   make(map[string]*draft.Session),
	}
	cfg.Client.OnUnauthorized(s.resetUser)
	return s
}

// Router mounts every console view under /console.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorLogger(s.log))
	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.CORS(s.origins...))
	r.MaxMultipartMemory = int64(s.maxFiles()) * draft.MaxFileSize

	g := r.Group("/console")
	g.Use(s.initialize)

	g.GET("/ws", gin.WrapH(s.hub))
	g.POST("/login", s.Login)
	g.POST("/register", s.Register)
	g.POST("/logout", s.Logout)
	g.GET("/session", s.Session)

	authed := g.Group("/")
	authed.Use(middleware.RequireSession(s.session))
	{
		authed.GET("/specialists", s.ListSpecialists)
		authed.GET("/specialists/:id", s.GetSpecialist)
		authed.GET("/specialists/:id/media", s.ListMedia)
		authed.GET("/service-offerings", s.ListOfferings)
		authed.GET("/platform-fees", s.ListFees)
	}

	specialist := authed.Group("/")
	specialist.Use(middleware.RequireRole(s.session, domain.RoleAdmin, domain.RoleSpecialist))
	{
		specialist.GET("/specialists/new", s.CreationSnapshot)
		specialist.POST("/specialists/new/open", s.OpenCreation)
		specialist.POST("/specialists/new/close", s.CloseCreation)
		specialist.POST("/specialists/new/files", s.AttachCreation)
		specialist.POST("/specialists/new/files/:fileId/retry", s.RetryCreation)
		specialist.POST("/specialists/new/submit", s.SubmitCreation)

		specialist.GET("/specialists/:id/edit", s.EditSnapshot)
		specialist.POST("/specialists/:id/files", s.AttachEdit)
		specialist.POST("/specialists/:id/files/:fileId/retry", s.RetryEdit)
		specialist.PATCH("/specialists/:id", s.SubmitEdit)
		specialist.POST("/specialists/:id/publish", s.Publish)
		specialist.DELETE("/specialists/:id", s.DeleteSpecialist)

		specialist.DELETE("/media/:id", s.DeleteMedia)
		specialist.PATCH("/media/:id/reorder", s.ReorderMedia)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(s.session, domain.RoleAdmin))
	{
		admin.GET("/service-offerings/:id", s.GetOffering)
		admin.POST("/service-offerings", s.CreateOffering)
		admin.PATCH("/service-offerings/:id", s.UpdateOffering)
		admin.DELETE("/service-offerings/:id", s.DeleteOffering)

		admin.GET("/platform-fees/:id", s.GetFee)
		admin.POST("/platform-fees", s.CreateFee)
		admin.PATCH("/platform-fees/:id", s.UpdateFee)
		admin.DELETE("/platform-fees/:id", s.DeleteFee)

		admin.GET("/users", s.ListUsers)
		admin.GET("/users/:id", s.GetUser)
		admin.DELETE("/users/:id", s.DeleteUser)
	}

	return r
}

// initialize restores the persisted session before the first view renders.
func (s *Server) initialize(c *gin.Context) {
	s.session.Initialize(c.Request.Context())
	c.Next()
}

func (s *Server) maxFiles() int {
	if s.opts.MaxFiles > 0 {
		return s.opts.MaxFiles
	}
	return draft.DefaultMaxFiles
}

func (s *Server) draftDeps() draft.Deps {
	return draft.Deps{
		Specialists: s.client.Specialists,
		Media:       s.client.Media,
		Cache:       s.cache,
		Log:         s.log,
		Observer:    s.hub.UploadObserver(),
	}
}

// background detaches work that must finish even when the browser goes
// away mid-request, such as uploads.
func background(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// resetUser forgets everything tied to the signed-in user.
func (s *Server) resetUser() {
	s.abandonAll()
	s.invalidate(context.Background(),
		querycache.KeySpecialists,
		querycache.KeySpecialistMedia,
		querycache.KeyServiceOfferings,
		querycache.KeyPlatformFees,
		querycache.KeyUsers,
	)
}

func (s *Server) invalidate(ctx context.Context, prefixes ...string) {
	for _, p := range prefixes {
		if err := s.cache.Invalidate(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("prefix", p).Msg("cache invalidation failed")
		}
	}
}

// bind decodes the body and validates it locally. Invalid input is answered
// with 422 and never sent to the backend.
func bind(c *gin.Context, form any) bool {
	if err := c.ShouldBindJSON(form); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return false
	}
	if fields := validator.Validate(form); fields != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Please correct the highlighted fields", fields)
		return false
	}
	return true
}

// fail renders a backend failure. Rejections keep the server's status and
// message; a rejected token sends the browser to the login page; anything
// else is logged and shown as a generic retry message.
func (s *Server) fail(c *gin.Context, err error, action string) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Unauthorized() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success":  false,
				"error":    gin.H{"code": "UNAUTHORIZED", "message": apiclient.Message(err, "Session expired")},
				"redirect": nav.LoginPath,
			})
			return
		}
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			code := apiErr.Code
			if code == "" {
				code = "REQUEST_REJECTED"
			}
			if apiErr.Details != nil {
				response.ErrorWithDetails(c, apiErr.Status, code, apiclient.Message(err, ""), apiErr.Details)
				return
			}
			response.Error(c, apiErr.Status, code, apiclient.Message(err, ""))
			return
		}
	}

	s.log.Error().Err(err).Str("route", c.FullPath()).Msg(action + " failed")
	response.Error(c, http.StatusBadGateway, "REQUEST_FAILED", action+" failed, please try again")
}
