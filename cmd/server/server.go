package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/bank"
	"github.com/edwardmsalem/sms-gateway/internal/config"
	"github.com/edwardmsalem/sms-gateway/internal/db"
	"github.com/edwardmsalem/sms-gateway/internal/dedupe"
	"github.com/edwardmsalem/sms-gateway/internal/handlers"
	"github.com/edwardmsalem/sms-gateway/internal/notify"
	"github.com/edwardmsalem/sms-gateway/internal/services"
	"github.com/edwardmsalem/sms-gateway/internal/spam"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"
	"github.com/edwardmsalem/sms-gateway/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupServer wires the full gateway and returns a configured HTTP server
// plus a cleanup function for the resources it opened.
func SetupServer(cfg *config.Config) (*http.Server, func(), error) {
	if cfg == nil {
		return nil, nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	database, err := db.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	cleanup := func() {
		if err := database.Close(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}

	// Repositories
	convRepo := db.NewConversationRepository(database.GetDB())
	msgRepo := db.NewMessageRepository(database.GetDB())
	blockRepo := db.NewBlocklistRepository(database.GetDB())

	// Vendor side
	registry := bank.NewRegistry(cfg.Banks)
	client := bank.NewClient(bank.ClientOptions{
		HTTPTimeout:   cfg.Readiness.HTTPTimeout,
		SendAttempts:  cfg.Send.Attempts,
		SendBaseDelay: cfg.Send.BaseDelay,
	})
	readiness := bank.NewReadinessController(client, cfg.Readiness.PollInterval, cfg.Readiness.Ceiling)
	sender := bank.NewSender(registry, readiness, client)

	// Collaborators
	notifier := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, 10*time.Second)
	classifier := spam.NewHTTPClassifier(cfg.Spam.ClassifierURL, cfg.Spam.Timeout)

	// Services
	watches := services.NewWatchService()
	window := dedupe.NewWindow(cfg.Dedupe.Window, dedupe.WithSweepThreshold(cfg.Dedupe.SweepThreshold))
	inboundRouter := services.NewInboundRouter(services.InboundRouterDeps{
		Dedupe:              window,
		Conversations:       convRepo,
		Messages:            msgRepo,
		Blocklist:           blockRepo,
		Classifier:          classifier,
		Notifier:            notifier,
		Watches:             watches,
		VerificationChannel: cfg.Notify.VerificationChannel,
		SpamChannel:         cfg.Notify.SpamChannel,
	})
	outbound := services.NewOutboundService(sender, convRepo, msgRepo, watches)

	router := gin.Default()
	setupRoutes(router, cfg, inboundRouter, outbound, blockRepo, convRepo, msgRepo, registry, client)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, cleanup, nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	inboundRouter *services.InboundRouter,
	outbound *services.OutboundService,
	blockRepo db.BlocklistRepository,
	convRepo db.ConversationRepository,
	msgRepo db.MessageRepository,
	registry *bank.Registry,
	client *bank.Client,
) {
	webhookHandler := handlers.NewWebhookHandler(inboundRouter)
	sendHandler := handlers.NewSendHandler(outbound)
	adminHandler := handlers.NewAdminHandler(blockRepo, convRepo, msgRepo, registry, client)

	// Webhook endpoints (public: the bank hardware cannot authenticate)
	webhook := router.Group("/webhook")
	{
		webhook.POST("/sms", webhookHandler.HandleSMS)
		webhook.GET("/health", webhookHandler.HandleHealth)
	}

	// Operator endpoints (JWT-protected)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.POST("/send", sendHandler.HandleSend)
		protected.POST("/block", adminHandler.HandleBlock)
		protected.GET("/block", adminHandler.HandleListBlocked)
		protected.DELETE("/block/:phone", adminHandler.HandleUnblock)
		protected.GET("/conversations/:id/messages", adminHandler.HandleConversationMessages)
		protected.GET("/banks/:id/slots", adminHandler.HandleBankSlots)
	}
}

// StartServer starts the HTTP server and handles graceful shutdown
func StartServer(srv *http.Server) error {
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
