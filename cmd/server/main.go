package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"youtrack_helper/internal/app"
	"youtrack_helper/internal/config"
	"youtrack_helper/internal/logger"
	mcpserver "youtrack_helper/internal/service/mcp-server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(context.Background(), cfg, "", logger.GetLogger())
	if err != nil {
		logger.GetLogger().Fatal("failed to build app", zap.Error(err))
	}

	server, err := mcpserver.NewServer(a.Client, a.Site, a.Log)
	if err != nil {
		a.Log.Fatal("failed to create server", zap.Error(err))
	}

	// stdout carries the protocol, logs go to stderr
	a.Log.Info("starting youtrack helper MCP server")
	if err := mcpserver.Serve(server); err != nil {
		a.Log.Fatal("server error", zap.Error(err))
	}
}
