package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"arcade-chat/internal/auth"
	"arcade-chat/internal/chess"
	"arcade-chat/internal/config"
	"arcade-chat/internal/db"
	"arcade-chat/internal/handlers"
	"arcade-chat/internal/middleware"
	"arcade-chat/internal/observability"
	"arcade-chat/internal/presence"
	"arcade-chat/internal/rabbitmq"
	"arcade-chat/internal/repositories"
	"arcade-chat/internal/service"
	"arcade-chat/internal/telemetry"
	"arcade-chat/internal/views"
	"arcade-chat/internal/ws"
)

const auditRoutingKey = "audit.chat"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleTime)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	if mode := rabbitmq.PublisherMode(publisher); mode != "amqp" {
		log.Printf("audit publisher mode=%s reason=%q", mode, rabbitmq.PublisherNoopReason(publisher))
	}
	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.Telemetry.ServiceName, cfg.Environment)

	if obsPublisher, err := observability.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange); err != nil {
		log.Printf("observability events disabled: %v", err)
	} else {
		observability.SetPublisher(obsPublisher)
	}

	userRepo := repositories.NewUserRepo(database)
	sessionRepo := repositories.NewSessionRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	settingsRepo := repositories.NewSettingsRepo(database)
	typingStore := presence.NewRedisStore(rdb, cfg.Chat.TypingWindow)

	authManager := auth.NewManager(userRepo, sessionRepo, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	gate := chess.NewGate(userRepo)
	hub := ws.NewHub()
	invalidator := views.NewVersionInvalidator()

	chatService := service.NewChatService(
		messageRepo, userRepo, sessionRepo, settingsRepo,
		typingStore, hub, invalidator,
		service.Options{
			RecentLimit:  cfg.Chat.RecentLimit,
			OnlineWindow: cfg.Chat.OnlineWindow,
			RetainFor:    cfg.Chat.RetainFor,
		},
	)
	adminService := service.NewAdminService(userRepo, messageRepo, settingsRepo, hub, invalidator)

	chatHandler := handlers.NewChatHandler(chatService, audit)
	adminHandler := handlers.NewAdminHandler(adminService, audit)
	authHandler := handlers.NewAuthHandler(authManager)
	chessHandler := handlers.NewChessHandler(gate, authManager)
	chatWS := ws.NewChatWebSocketHandler(hub, authManager)

	go runCleanup(ctx, chatService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authManager)
	adminMiddleware := middleware.AdminMiddleware()
	chessGate := middleware.ChessGateMiddleware()

	router.POST("/auth/sign-up", authHandler.SignUp)
	router.POST("/auth/sign-in", authHandler.SignIn)
	router.POST("/auth/sign-out", authHandler.SignOut)
	router.GET("/auth/me", authMiddleware, authHandler.Me)

	chat := router.Group("/chat", authMiddleware, chessGate)
	chat.GET("/messages", chatHandler.ListMessages)
	chat.POST("/messages", chatHandler.PostMessage)
	chat.PUT("/messages/:message_id", chatHandler.EditMessage)
	chat.DELETE("/messages/:message_id", chatHandler.DeleteMessage)
	chat.GET("/typing", chatHandler.ListTypingUsers)
	chat.POST("/typing", chatHandler.SetTyping)
	chat.GET("/online", chatHandler.ListOnlineUsers)
	chat.POST("/presence/online", chatHandler.SetOnline)
	chat.POST("/presence/offline", chatHandler.SetOffline)
	chat.GET("/settings", chatHandler.GetSettings)

	router.GET("/chess/status", authMiddleware, chessHandler.Status)
	router.POST("/chess/complete", authMiddleware, chessHandler.Complete)
	// Revoke authenticates itself so sendBeacon calls work without headers.
	router.POST("/chess/revoke", chessHandler.Revoke)

	admin := router.Group("/admin", authMiddleware, adminMiddleware)
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.DELETE("/users/:user_id", adminHandler.DeleteUser)
	admin.POST("/users/:user_id/toggle-admin", adminHandler.ToggleAdmin)
	admin.POST("/users/:user_id/reset-password", adminHandler.ResetPassword)
	admin.DELETE("/messages", adminHandler.ClearMessages)
	admin.POST("/messages/cleanup", chatHandler.CleanupOld)
	admin.POST("/chat/toggle", adminHandler.ToggleChat)

	router.GET("/ws/chat", chatWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// runCleanup prunes aged-out messages hourly until the context ends.
func runCleanup(ctx context.Context, chat service.ChatService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := chat.CleanupOld(ctx)
			if err != nil {
				log.Printf("message cleanup failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("message cleanup removed %d messages", removed)
			}
		}
	}
}
