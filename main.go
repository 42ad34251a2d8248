package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	apirest "github.com/lingokit/server/api/rest"
	"github.com/lingokit/server/api/sse"
	"github.com/lingokit/server/audit"
	"github.com/lingokit/server/cache"
	"github.com/lingokit/server/config"
	dbadapter "github.com/lingokit/server/db"
	mw "github.com/lingokit/server/middleware"
	"github.com/lingokit/server/model"
	"github.com/lingokit/server/notify"
	"github.com/lingokit/server/relationship"
	"github.com/lingokit/server/scheduler"
	"github.com/lingokit/server/user"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Services ----
	userSvc := user.NewService(db, logger)
	notifySvc := notify.NewService(db, pubsub, logger)
	relSvc := relationship.NewService(db, userSvc, notifySvc, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	sched.AddTicker("notification_purge", cfg.Notify.PurgeInterval, func() {
		n, err := notifySvc.PurgeRead(context.Background(), cfg.Notify.RetainRead)
		if err != nil {
			logger.Error("notification purge failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("purged read notifications", zap.Int64("count", n))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, userSvc, cfg.Security)
	userH := apirest.NewUserHandler(userSvc, relSvc)
	relH := apirest.NewRelationshipHandler(relSvc, auditSvc)
	notifH := apirest.NewNotificationHandler(notifySvc)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		meG := api.Group("/me")
		meG.Use(mw.Auth(cfg.Security, c))
		meG.GET("/profile", userH.MyProfile)
		meG.PATCH("/profile", userH.UpdateMyProfile)

		usersG := api.Group("/users")
		usersG.Use(mw.Auth(cfg.Security, c))
		usersG.GET("/:id/profile", userH.Profile)

		relG := api.Group("/relationships")
		relG.Use(mw.Auth(cfg.Security, c))
		relG.GET("", relH.ListFriends)
		relG.GET("/blocked", relH.ListBlocked)
		relG.GET("/requests/sent", relH.ListSent)
		relG.GET("/requests/received", relH.ListReceived)
		relG.GET("/search/all", relH.SearchAll)
		relG.GET("/search/friends", relH.SearchFriends)
		relG.POST("", relH.Create)
		relG.PATCH("/:id", relH.Manage)
		relG.POST("/block/:id", relH.Block)

		notifG := api.Group("/notifications")
		notifG.Use(mw.Auth(cfg.Security, c))
		notifG.GET("", notifH.List)
		notifG.POST("/:id/read", notifH.MarkRead)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
