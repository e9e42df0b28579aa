// Package router assembles the gin engine: global middleware, the GraphQL
// endpoint, and the small REST surface used by mobile background tasks.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/graphql-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/community"
	"github.com/chachabrian/carpool-backend/internal/config"
	"github.com/chachabrian/carpool-backend/internal/handlers"
	"github.com/chachabrian/carpool-backend/internal/middleware"
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/chachabrian/carpool-backend/internal/tracker"
)

type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Verifier  auth.Verifier
	Schema    *graphql.Schema
	Bus       realtime.Subscriber
	Community *community.Service
	Tracker   *tracker.Tracker
	Storage   *services.Storage
	Health    map[string]handlers.Pinger
}

func Setup(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Metrics(),
		cors.New(corsConfig(d.Config.Server.AllowOrigins)),
		middleware.Authenticate(d.Verifier, d.Logger),
	)

	r.GET("/healthz", handlers.Health(d.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.Storage != nil && !d.Storage.UsingS3() {
		r.Static("/uploads", d.Config.Storage.UploadDir)
	}

	if d.Schema != nil {
		gql := handlers.GraphQL(d.Schema, d.Verifier, d.Logger)
		r.POST("/graphql", gql)
		r.GET("/graphql", gql)
		r.GET("/subscriptions", gql)
	}

	api := r.Group("/api", middleware.RequireAuth())
	{
		api.GET("/ws", handlers.WebSocketHandler(d.Bus, d.Logger))

		users := api.Group("/users")
		{
			users.GET("/profile", handlers.GetProfile(d.Community))
			users.PUT("/profile", handlers.UpdateProfile(d.Community))
		}

		api.POST("/carpools/:id/location", handlers.UpdateCarpoolLocation(d.Tracker))
		api.POST("/uploads/:folder", handlers.UploadImage(d.Storage))

		notifications := api.Group("/notifications")
		{
			notifications.POST("/token", handlers.RegisterPushToken(d.Community))
			notifications.DELETE("/token", handlers.RemovePushToken(d.Community))
			notifications.GET("/preferences", handlers.GetNotificationPreferences(d.Community))
			notifications.PUT("/preferences", handlers.UpdateNotificationPreferences(d.Community))
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
