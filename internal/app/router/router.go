package router

import (
	"context"

	"ewsclient/internal/app/handlers"
	"ewsclient/internal/app/middleware"
	"ewsclient/internal/pkg/config"
	"ewsclient/internal/pkg/otel"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	HealthCheckPath = "/EWS/HealthCheck"
	ExchangePath    = "/EWS/Exchange.asmx"
)

func SetupRouter(ctx context.Context, serviceName string, cfg config.MockConfig) *gin.Engine {
	server := gin.Default()
	meter := otel.GetMeter(serviceName)
	server.Use(otelgin.Middleware(serviceName))
	server.Use(middleware.NewMetricMiddleware(meter))
	server.Use(middleware.AttachRequestID())

	healthCheckHandler := handlers.NewHealthCheckHandler()
	server.GET(HealthCheckPath, healthCheckHandler.HealthCheck)

	ewsMockHandler := handlers.NewEWSMockHandler(cfg)
	server.POST(ExchangePath, ewsMockHandler.Exchange)

	return server
}
