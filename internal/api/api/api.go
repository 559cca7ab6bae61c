package api

import (
	"net/http"

	"eventhub/cmd/middleware"
	"eventhub/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
)

type Routers struct {
	Service service.Service
	Tokens  middleware.Authenticator
	// Chat serves the websocket upgrade on /ws.
	Chat   http.Handler
	Log    *zerolog.Logger
	Mode   string
	Origin []string
}

func NewRouters(r *Routers) *ginext.Engine {
	mode := r.Mode
	if mode == "" {
		mode = "release"
	}
	app := ginext.New(mode)

	app.Use(middleware.LoggingMiddleware(r.Log))
	app.Use(corsMiddleware(r.Origin))

	app.GET("/health", r.Service.Health)
	if r.Chat != nil {
		app.GET("/ws", gin.WrapH(r.Chat))
	}

	authed := middleware.RequireAuth(r.Tokens)
	admin := middleware.RequireAdmin()

	apiGroup := app.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", r.Service.SignUp)
	authGroup.POST("/login", r.Service.Login)
	authGroup.POST("/logout", r.Service.Logout)
	authGroup.POST("/forgot-password", r.Service.ForgotPassword)
	authGroup.POST("/reset-password", r.Service.ResetPassword)
	authGroup.GET("/me", authed, r.Service.Me)

	apiGroup.GET("/events", r.Service.ListEvents)
	apiGroup.GET("/events/search", r.Service.SearchEvents)

	apiGroup.GET("/events/pending", authed, admin, r.Service.ListPending)
	apiGroup.GET("/events/my-registrations", authed, r.Service.MyRegistrations)
	apiGroup.GET("/events/my-created", authed, r.Service.MyCreated)

	apiGroup.GET("/events/:id", r.Service.GetEvent)
	apiGroup.POST("/events", authed, r.Service.CreateEvent)
	apiGroup.PUT("/events/:id", authed, r.Service.UpdateEvent)
	apiGroup.DELETE("/events/:id", authed, r.Service.DeleteEvent)
	apiGroup.PUT("/events/:id/approve", authed, admin, r.Service.ApproveEvent)
	apiGroup.PUT("/events/:id/reject", authed, admin, r.Service.RejectEvent)
	apiGroup.POST("/events/:id/register", authed, r.Service.Register)
	apiGroup.POST("/events/:id/unregister", authed, r.Service.Unregister)
	apiGroup.POST("/events/:id/report", authed, r.Service.ReportEvent)
	apiGroup.POST("/events/:id/reports/:reportId/reject", authed, admin, r.Service.RejectReportedEvent)
	apiGroup.GET("/events/:id/messages", authed, r.Service.ChatHistory)

	apiGroup.GET("/reports", authed, admin, r.Service.ListReports)
	apiGroup.POST("/reports/:id/ignore", authed, admin, r.Service.IgnoreReport)

	apiGroup.GET("/users", authed, admin, r.Service.ListUsers)
	apiGroup.PUT("/users/:id/block", authed, admin, r.Service.BlockUser)

	return app
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AddAllowHeaders("Authorization")
	return cors.New(cfg)
}
