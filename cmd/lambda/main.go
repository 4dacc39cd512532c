package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"youtrack_helper/internal/app"
	"youtrack_helper/internal/config"
	"youtrack_helper/internal/logger"
)

var ginLambda *ginadapter.GinLambda

func handleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func newRouter(ctx context.Context, cfg *config.Config) (*gin.Engine, error) {
	a, err := app.New(ctx, cfg, "", logger.GetLogger())
	if err != nil {
		return nil, err
	}
	return a.Gateway().Router(), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)
	r, err := newRouter(context.Background(), cfg)
	if err != nil {
		logger.GetLogger().Fatal("failed to build gateway", zap.Error(err))
	}

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		logger.GetLogger().Info("starting gateway", zap.String("addr", cfg.HTTPAddr))
		if err := r.Run(cfg.HTTPAddr); err != nil {
			logger.GetLogger().Fatal("gateway stopped", zap.Error(err))
		}
		return
	}

	ginLambda = ginadapter.New(r)
	lambda.Start(handleRequest)
}
