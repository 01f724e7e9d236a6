package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/examhub/examhub-api/internal/authz"
	"github.com/examhub/examhub-api/internal/handler"
	"github.com/examhub/examhub-api/internal/middleware"
	"github.com/examhub/examhub-api/internal/service"
	"github.com/examhub/examhub-api/pkg/config"
	"github.com/examhub/examhub-api/pkg/logger"
	corsmiddleware "github.com/examhub/examhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/examhub/examhub-api/pkg/middleware/requestid"
)

// Dependencies bundles everything the HTTP surface needs.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Policy  *authz.Policy
	Auth    *service.AuthService
	Metrics *service.MetricsService

	AuthHandler  *handler.AuthHandler
	PaperHandler *handler.PaperHandler
	StatsHandler *handler.StatsHandler
	AdminHandler *handler.AdminHandler
}

// New assembles the gin engine with all routes and middleware.
func New(deps Dependencies) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readiness(deps.DB, deps.Redis))
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Config.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.AuthHandler.Register)
		auth.POST("/login", deps.AuthHandler.Login)
		auth.GET("/me", middleware.Auth(deps.Auth), deps.AuthHandler.Me)
	}

	papers := api.Group("/papers")
	{
		papers.GET("", deps.PaperHandler.List)
		papers.POST("", middleware.Auth(deps.Auth), deps.PaperHandler.Upload)
		papers.GET("/recent", deps.StatsHandler.Recent)
		papers.GET("/values", deps.PaperHandler.Values)
		papers.GET("/mine", middleware.Auth(deps.Auth), deps.PaperHandler.MyPapers)
		papers.GET("/:id", middleware.OptionalAuth(deps.Auth), deps.PaperHandler.Get)
		papers.GET("/:id/download", middleware.OptionalAuth(deps.Auth), deps.PaperHandler.Download)
		papers.DELETE("/:id", middleware.Auth(deps.Auth), deps.PaperHandler.Delete)
	}

	api.GET("/stats", deps.StatsHandler.Platform)

	admin := api.Group("/admin", middleware.Auth(deps.Auth), middleware.RequireAdmin(deps.Policy))
	{
		admin.GET("/papers", deps.AdminHandler.ListPapers)
		admin.PUT("/papers/:id/approve", deps.AdminHandler.Approve)
		admin.PUT("/papers/:id/reject", deps.AdminHandler.Reject)
		admin.DELETE("/papers/:id", deps.PaperHandler.Delete)
		admin.GET("/stats", deps.AdminHandler.Stats)
		admin.GET("/metrics", deps.AdminHandler.Metrics)
		admin.GET("/export", deps.AdminHandler.Export)
	}

	return r
}

func readiness(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
