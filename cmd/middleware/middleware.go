package middleware

import (
	"time"

	"eventhub/internal/auth"
	"eventhub/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Authenticator interface {
	Parse(raw string) (auth.Actor, error)
}

func LoggingMiddleware(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// RequireAuth resolves the bearer token into an auth.Actor stored on the request context.
func RequireAuth(tokens Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := auth.TokenFromRequest(c.Request)
		if raw == "" {
			dto.UnauthorizedError(c)
			return
		}
		actor, err := tokens.Parse(raw)
		if err != nil {
			dto.UnauthorizedError(c)
			return
		}
		c.Request = c.Request.WithContext(auth.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.ActorFrom(c.Request.Context())
		if !ok {
			dto.UnauthorizedError(c)
			return
		}
		if !actor.IsAdmin() {
			dto.ForbiddenError(c, "Admin access required")
			return
		}
		c.Next()
	}
}
