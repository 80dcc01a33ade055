package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"motorent/internal/domain"
	"motorent/internal/handler"
	"motorent/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CartHandler    *handler.CartHandler
	CouponHandler  *handler.CouponHandler
	BookingHandler *handler.BookingHandler
	PaymentHandler *handler.PaymentHandler
	JWTSecret      []byte
	AllowedOrigins []string
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	Logger         *logrus.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicAttributes())
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")

	// The gateway calls the webhook with a signature header instead of a token.
	v1.POST("/payments/webhook", deps.PaymentHandler.Webhook)

	authed := v1.Group("")
	authed.Use(middleware.Auth(deps.JWTSecret))
	{
		// Cart routes.
		cart := authed.Group("/cart")
		cart.Use(middleware.RequireRole(domain.RoleCustomer))
		{
			cart.GET("", deps.CartHandler.GetCart)
			cart.POST("/items", deps.CartHandler.AddItem)
			cart.DELETE("/items/:itemId", deps.CartHandler.RemoveItem)
			cart.POST("/coupon", deps.CartHandler.ApplyCoupon)
			cart.DELETE("/coupon", deps.CartHandler.RemoveCoupon)
		}

		// Booking routes.
		bookings := authed.Group("/bookings")
		{
			bookings.POST("/orders",
				middleware.RequireRole(domain.RoleCustomer),
				middleware.IdempotencyMiddleware(deps.RedisClient),
				deps.BookingHandler.GenerateOrder,
			)
			bookings.GET("", middleware.RequireRole(domain.RoleCustomer), deps.BookingHandler.ListBookings)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.GET("/:id/cancellation-estimate", deps.BookingHandler.CancellationEstimate)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
		}

		// Payment routes.
		authed.POST("/payments/verify", middleware.RequireRole(domain.RoleCustomer), deps.PaymentHandler.VerifyPayment)

		// Admin routes.
		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRole(domain.RoleAdmin))
		{
			admin.POST("/coupons", deps.CouponHandler.CreateCoupon)
			admin.PATCH("/bookings/:id/status", deps.BookingHandler.UpdateStatus)
		}
	}

	return router, nil
}
