// Package api exposes the portal over HTTP with gin.
package api

import (
	"net/http"
	"strings"

	"form-digitizer/internal/access"
	"form-digitizer/internal/branding"
	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/common/logger"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/dashboard"
	"form-digitizer/internal/ingest"
	"form-digitizer/internal/records"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Ingest    *ingest.Service
	Records   *records.Store
	Dashboard *dashboard.Service
	Access    *access.Gate
	Branding  *branding.Service
	KV        storage.KV
}

type Options struct {
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
	// MetricsHandler defaults to the prometheus default registry.
	MetricsHandler http.Handler
}

type Server struct {
	svc    Services
	opts   Options
	logger logger.Logger
	errs   *apperrors.ErrorHandler
}

func NewServer(svc Services, opts Options, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	log = log.WithFields(map[string]interface{}{"component": "api"})
	return &Server{
		svc:    svc,
		opts:   opts,
		logger: log,
		errs:   apperrors.NewErrorHandler(log),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.opts.MaxUploadBytes
	r.Use(correlationID())
	r.Use(cors.New(s.corsConfig()))
	r.Use(s.requestLogger())
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.opts.MetricsHandler))

	api := r.Group("/api")
	api.POST("/login", s.login)
	api.GET("/branding", s.getBranding)

	authed := api.Group("")
	authed.Use(s.requireSession())
	{
		authed.POST("/logout", s.logout)
		authed.GET("/session", s.getSession)

		authed.POST("/records/upload", s.uploadRecords)
		authed.POST("/records/manual", s.submitManual)
		authed.POST("/records/sync", s.syncAll)
		authed.GET("/records", s.listRecords)
		authed.DELETE("/records", s.clearRecords)
		authed.GET("/records/:id", s.getRecord)
		authed.PUT("/records/:id", s.editRecord)
		authed.DELETE("/records/:id", s.removeRecord)
		authed.GET("/records/:id/image", s.recordImage)
		authed.POST("/records/:id/sync", s.syncRecord)

		authed.GET("/dashboard", s.getDashboard)
		authed.GET("/export.csv", s.exportCSV)
		authed.GET("/export.xlsx", s.exportXLSX)

		admin := authed.Group("")
		admin.Use(requireSuperAdmin())
		admin.PUT("/branding", s.saveBranding)
		admin.GET("/users", s.listUsers)
		admin.PUT("/users/:username", s.saveUser)
		admin.DELETE("/users/:username", s.deleteUser)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "route not found"})
	})
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.opts.CORSAllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.opts.CORSAllowedOrigins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions)
	cfg.AddAllowHeaders("Authorization", sessionHeader, correlationHeader)
	cfg.AddExposeHeaders("Content-Disposition", correlationHeader)
	return cfg
}

func (s *Server) health(c *gin.Context) {
	if s.svc.KV != nil {
		if err := s.svc.KV.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError renders err as a StandardError body.
func (s *Server) respondError(c *gin.Context, operation string, err error) {
	status, stdErr := s.errs.Handle(operation, err)
	c.AbortWithStatusJSON(status, errorBody{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
		Fields:  stdErr.Fields,
	})
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func bearerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.GetHeader(sessionHeader))
}
