package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"marketplace-service/internal/config"
	"marketplace-service/internal/db"
	"marketplace-service/internal/geo"
	"marketplace-service/internal/handlers"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/observability"
	"marketplace-service/internal/rabbitmq"
	"marketplace-service/internal/repositories"
	"marketplace-service/internal/telemetry"
	"marketplace-service/internal/uploads"
	"marketplace-service/internal/utils"
	"marketplace-service/internal/ws"
)

const serviceName = "marketplace-service"

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to db")
	}
	defer database.Close()

	shutdownTracing, err := telemetry.InitTracing(context.Background(), serviceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.WithError(err).Fatal("failed to init tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.WithError(err).Warn("tracing shutdown error")
		}
	}()

	if cfg.AMQPURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.WithError(err).Warn("event publisher disabled")
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.marketplace", serviceName, cfg.Environment)

	jwtService := utils.NewJWTService(cfg.JWTSecret)

	adRepo := repositories.NewAdRepo(database)
	auctionRepo := repositories.NewAuctionRepo(database)
	convRepo := repositories.NewConversationRepo(database)
	favRepo := repositories.NewFavoriteRepo(database)
	userRepo := repositories.NewUserRepo(database)

	hub := ws.NewHub()

	adHandler := handlers.NewAdHandler(adRepo, favRepo, convRepo, userRepo)
	bidHandler := handlers.NewBidHandler(auctionRepo, adRepo, hub, audit)
	convHandler := handlers.NewConversationHandler(convRepo, adRepo, userRepo, hub)
	favHandler := handlers.NewFavoriteHandler(favRepo, adRepo)
	profileHandler := handlers.NewProfileHandler(userRepo, adRepo)
	geoHandler := handlers.NewGeoHandler(geo.NewClient(cfg.GeoBaseURL))

	var uploadHandler *handlers.UploadHandler
	if cfg.Cloudinary.CloudName != "" {
		uploader, err := uploads.NewCloudinaryUploader(cfg.Cloudinary)
		if err != nil {
			log.WithError(err).Fatal("failed to init uploader")
		}
		uploadHandler = handlers.NewUploadHandler(uploader)
	}

	adWS := ws.NewAdWebSocketHandler(hub, adRepo, jwtService)
	inboxWS := ws.NewInboxWebSocketHandler(hub, userRepo, convRepo, jwtService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	authMiddleware := middleware.AuthMiddleware(jwtService)

	router.GET("/ads", adHandler.ListAds)
	router.GET("/ads/:ad_id", authMiddleware, adHandler.GetAd)
	router.POST("/ads", authMiddleware, adHandler.CreateAd)
	router.PUT("/ads/:ad_id", authMiddleware, adHandler.UpdateAd)
	router.DELETE("/ads/:ad_id", authMiddleware, adHandler.DeleteAd)

	router.POST("/ads/:ad_id/bids", authMiddleware, bidHandler.PlaceBid)
	router.GET("/ads/:ad_id/bids", authMiddleware, bidHandler.ListBids)
	router.GET("/ads/:ad_id/quick-bids", authMiddleware, bidHandler.QuickBids)

	router.POST("/favorites/:ad_id", authMiddleware, favHandler.AddFavorite)
	router.DELETE("/favorites/:ad_id", authMiddleware, favHandler.RemoveFavorite)
	router.GET("/favorites", authMiddleware, favHandler.ListFavorites)

	router.GET("/conversations", authMiddleware, convHandler.ListConversations)
	router.POST("/conversations", authMiddleware, convHandler.StartConversation)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, convHandler.ListMessages)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, convHandler.SendMessage)

	router.GET("/me", authMiddleware, profileHandler.GetProfile)
	router.PUT("/me", authMiddleware, profileHandler.UpsertProfile)
	router.GET("/me/ads", authMiddleware, adHandler.ListMyAds)
	router.GET("/me/bids", authMiddleware, bidHandler.ListMyBids)
	router.GET("/me/updates", authMiddleware, profileHandler.ListUpdates)
	router.GET("/users/:user_id", authMiddleware, profileHandler.GetUserProfile)

	router.GET("/geo/countries", geoHandler.Countries)
	router.GET("/geo/states", geoHandler.States)
	router.GET("/geo/cities", geoHandler.Cities)

	if uploadHandler != nil {
		router.POST("/uploads", authMiddleware, uploadHandler.UploadImage)
		router.DELETE("/uploads", authMiddleware, uploadHandler.DeleteImage)
	}

	router.GET("/ws/ads/:ad_id", adWS.Handle)
	router.GET("/ws/inbox", inboxWS.Handle)

	log.WithField("port", cfg.Port).Info("starting server")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
