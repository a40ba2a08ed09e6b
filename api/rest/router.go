package rest

import (
	"context"
	"net/http"

	"github.com/banditrecycle/server/audit"
	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/config"
	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/scheduler"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/tracker/batch"
	"github.com/banditrecycle/server/tracker/setup"
	"github.com/banditrecycle/server/tracker/stats"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps is everything the HTTP API is wired from.
type Deps struct {
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
	Store  *store.Store
	Setup  *setup.Service
	Batch  *batch.Service
	Stats  *stats.Service
	Audit  *audit.Service
	Sched  *scheduler.Scheduler
	Server config.ServerConfig
	Sec    config.SecurityConfig
	Logger *zap.Logger
}

// NewRouter builds the gin engine with every route. ctx bounds the
// rate limiter's background sweep.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(d.Logger), mw.Recovery(d.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := NewAuthHandler(d.DB, d.Cache, d.Sec, d.Store.Profiles, d.Logger)
	profileH := NewProfileHandler(d.Store, d.Stats, d.Logger)
	catalogH := NewCatalogHandler(d.Store, d.Logger)
	setupH := NewSetupHandler(d.Setup, d.Logger)
	logH := NewLogHandler(d.Batch, d.Store, d.Logger)
	statsH := NewStatsHandler(d.Stats, d.Logger)
	adminH := NewAdminHandler(d.Store, d.Sched, d.Audit, d.PubSub, d.Logger)

	requireAuth := mw.Auth(d.Sec, d.Cache)
	limit := func() gin.HandlerFunc {
		return mw.RateLimit(ctx, rate.Limit(d.Sec.RateLimitRPS), d.Sec.RateLimitBurst)
	}
	record := d.Audit.Record

	authG := r.Group("/api/auth", limit())
	{
		authG.POST("/login", record("login"), authH.Login)
		authG.POST("/logout", requireAuth, authH.Logout)
		authG.POST("/refresh", requireAuth, authH.Refresh)
	}

	// Everything else resolves the caller first so signed-in users are
	// rate limited per account.
	api := r.Group("/api", mw.OptionalAuth(d.Sec, d.Cache), limit())
	{
		api.GET("/items", catalogH.Items)
		api.GET("/hats", profileH.Hats)

		// Reads that degrade to empty results for anonymous callers.
		api.GET("/profile", profileH.Get)
		api.GET("/rules", catalogH.Rules)
		api.GET("/log/entries", logH.Entries)

		user := api.Group("", requireAuth)
		user.PATCH("/profile", record("profile_update"), profileH.Patch)
		user.PUT("/profile/hat", record("hat_select"), profileH.SetHat)
		user.DELETE("/profile", record("account_delete_request"), profileH.Delete)
		user.PUT("/rules/:item_id", record("rule_set"), catalogH.PutRule)

		setupG := user.Group("/setup")
		setupG.GET("", setupH.Get)
		setupG.PUT("/location", setupH.SetLocation)
		setupG.PUT("/stream_mode", setupH.SetStreamMode)
		setupG.PUT("/rules/:item_id", setupH.SetRule)
		setupG.POST("/next", record("setup_next"), setupH.Next)
		setupG.POST("/back", setupH.Back)
		setupG.DELETE("", setupH.Discard)

		logG := user.Group("/log")
		logG.GET("", logH.Open)
		logG.GET("/items/:item_id", logH.Guidance)
		logG.POST("/batch/items", logH.Add)
		logG.POST("/batch/items/:item_id/increment", logH.Increment)
		logG.POST("/batch/items/:item_id/decrement", logH.Decrement)
		logG.DELETE("/batch/items/:item_id", logH.Remove)
		logG.DELETE("/batch", logH.Leave)
		logG.POST("/batch/submit", record("log_batch"), logH.Submit)
		logG.POST("/success/ack", logH.Acknowledge)
		logG.POST("/camera", logH.Camera)

		user.GET("/stats", statsH.Summary)
		user.GET("/friends", statsH.Friends)
		user.POST("/friends/request", record("friend_request"), statsH.SendRequest)
		user.POST("/friends/:id/respond", record("friend_respond"), statsH.Respond)
	}

	adminG := r.Group("/api/admin")
	adminG.Use(mw.IPWhitelist(d.Server.AdminIPs), AdminAuth(d.Server.AdminKey))
	{
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/catalog/refresh", adminH.RefreshCatalog)
	}

	return r
}
