package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"labequip-backend/config"
	"labequip-backend/internal/borrow"
	"labequip-backend/internal/identity"
	"labequip-backend/internal/mw"
	"labequip-backend/internal/reservation"
	"labequip-backend/internal/store"
)

// Deps bundles what the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Store        store.Store
	Borrows      *borrow.Service
	Reservations *reservation.Service
	Resolver     identity.Resolver
	WebPush      *webpush.Options
}

// actorURIKey keys cached responses per caller, since list results are scoped to the actor.
func actorURIKey(c *gin.Context) string {
	a, _ := identity.FromContext(c)
	return fmt.Sprintf("%d:%s:%s", a.ID, a.Role, c.Request.RequestURI)
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}

	r := gin.Default()
	r.Use(mw.RequestID())
	if len(cfg.CORS.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", identity.HeaderUserID, identity.HeaderUserRole, mw.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := NewHandler(d.Borrows, d.Reservations, d.Store, d.WebPush)

	// Borrow reads are not cached: the overdue sweep changes borrow status
	// outside any HTTP write, possibly from another process.
	responses := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)
	caching := mw.Cache(responses, actorURIKey)

	staff := requireRoles(identity.RoleAdmin, identity.RoleTeacher)
	admin := requireRoles(identity.RoleAdmin)

	v1 := r.Group("/api/v1")
	v1.Use(mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst))
	v1.Use(identity.Middleware(d.Resolver))
	v1.Use(mw.FlushOnWrite(responses))
	{
		b := v1.Group("/borrow")
		b.GET("", handler.ListBorrows)
		b.POST("", handler.CreateBorrow)
		b.PUT("/mark-overdue", admin, handler.MarkOverdue)
		b.GET("/available-quantity/:equipmentId", handler.AvailableQuantity)
		b.GET("/:id", handler.GetBorrow)
		b.PUT("/:id/approve", staff, handler.ApproveBorrow)
		b.PUT("/:id/borrow", staff, handler.ConfirmHandout)
		b.PUT("/:id/return", handler.ReturnBorrow)

		res := v1.Group("/reservation")
		res.GET("", caching, handler.ListReservations)
		res.POST("", handler.CreateReservation)
		res.POST("/check-conflict", handler.CheckConflict)
		res.GET("/available-time", caching, handler.AvailableTime)
		res.GET("/:id", caching, handler.GetReservation)
		res.PUT("/:id/cancel", handler.CancelReservation)
		res.PUT("/:id/approve", staff, handler.ApproveReservation)
		res.PUT("/:id/complete", staff, handler.CompleteReservation)

		v1.GET("/subscriptions", handler.GetSubscription)
		v1.PUT("/subscriptions", handler.PutSubscription)
		v1.DELETE("/subscriptions", handler.DeleteSubscription)
		v1.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
