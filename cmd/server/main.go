package main

import (
	"flag"
	"os"

	"github.com/edwardmsalem/sms-gateway/internal/config"
	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	// .env is optional; real deployments mount a config file.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("GATEWAY_CONFIG"), "path to JSON config file")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	if err := logger.Init(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		panic(err)
	}
	defer logger.Info("Server shutting down")

	logger.Info("Starting SMS gateway",
		zap.String("version", version),
		zap.Int("banks", len(cfg.Banks)))

	srv, cleanup, err := SetupServer(cfg)
	if err != nil {
		logger.Fatal("Failed to setup server", zap.Error(err))
	}
	defer cleanup()

	if err := StartServer(srv); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
