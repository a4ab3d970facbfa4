package app

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"dogwalk/internal/handler"
	"dogwalk/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	OwnerHandler   *handler.OwnerHandler
	WalkerHandler  *handler.WalkerHandler
	BookingHandler *handler.BookingHandler
	LiveHandler    *handler.LiveHandler
	MessageHandler *handler.MessageHandler
	AdminHandler   *handler.AdminHandler
	RedisClient    redis.Cmdable // nil disables idempotency replay
	NewRelicApp    *newrelic.Application
	Logger         *slog.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Metrics(deps.Logger))
	router.Use(middleware.CORS())
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}
	router.Use(middleware.Idempotency(deps.RedisClient, deps.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		owners := v1.Group("/owners")
		{
			owners.POST("/register", deps.OwnerHandler.Register)
			owners.GET("/:id/current-walk", deps.OwnerHandler.CurrentWalk)
			owners.GET("/:id/live", deps.LiveHandler.OwnerLive)
		}

		walkers := v1.Group("/walkers")
		{
			walkers.POST("/register", deps.WalkerHandler.Register)
			walkers.GET("/:id", deps.WalkerHandler.GetWalker)
			walkers.GET("/:id/balance", deps.WalkerHandler.Balance)
			walkers.GET("/:id/claimable", deps.WalkerHandler.Claimable)
			walkers.GET("/:id/active", deps.WalkerHandler.Active)
			walkers.POST("/:id/accept", deps.WalkerHandler.Accept)
			walkers.POST("/:id/online", deps.WalkerHandler.SetOnline)
			walkers.POST("/:id/bookings/:booking_id/start", deps.WalkerHandler.StartWalk)
			walkers.POST("/:id/bookings/:booking_id/finish", deps.WalkerHandler.FinishWalk)
			walkers.GET("/:id/gps", deps.LiveHandler.WalkerGPS)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/rating", deps.BookingHandler.SubmitRating)
			bookings.GET("/:id/locations", deps.BookingHandler.ListLocations)
			bookings.POST("/:id/locations", deps.BookingHandler.AppendLocation)
		}

		conversations := v1.Group("/conversations")
		{
			conversations.POST("", deps.MessageHandler.OpenConversation)
			conversations.GET("", deps.MessageHandler.ListConversations)
			conversations.GET("/:id/messages", deps.MessageHandler.ListMessages)
			conversations.POST("/:id/messages", deps.MessageHandler.SendMessage)
			conversations.GET("/:id/live", deps.MessageHandler.Live)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/walkers", deps.AdminHandler.ListWalkers)
			admin.POST("/walkers/:id/verification", deps.AdminHandler.ReviewVerification)
		}
	}

	return router
}
