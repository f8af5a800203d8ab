package api

import (
	"time"

	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	correlationHeader = "X-Correlation-ID"
	sessionHeader     = "X-Session-Token"
	correlationKey    = "correlationId"
	sessionKey        = "session"
)

func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(correlationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Set(correlationKey, cid)
		c.Header(correlationHeader, cid)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":        c.Request.Method,
			"path":          c.FullPath(),
			"status":        c.Writer.Status(),
			"duration":      time.Since(start).String(),
			"correlationId": c.GetString(correlationKey),
		}
		if c.FullPath() == "/healthz" || c.FullPath() == "/metrics" {
			s.logger.Debug("request", fields)
			return
		}
		s.logger.Info("request", fields)
	}
}

func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.svc.Access.Session(c.Request.Context(), bearerToken(c))
		if err != nil {
			s.respondError(c, "session", err)
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func requireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess == nil || !sess.IsSuperAdmin() {
			stdErr := apperrors.NewForbiddenError("super_admin role required")
			c.AbortWithStatusJSON(stdErr.HTTPStatus(), errorBody{
				Code:    string(stdErr.Code),
				Message: stdErr.Message,
				Details: stdErr.Details,
			})
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*models.Session)
	return sess
}
