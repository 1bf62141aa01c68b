package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/kierolabs/dealdesk-backend/internal/http/handlers"
	httpMW "github.com/kierolabs/dealdesk-backend/internal/http/middleware"
	"github.com/kierolabs/dealdesk-backend/internal/observability"
)

type RouterConfig struct {
	ServiceName string

	LineageHandler   *httpH.LineageHandler
	ScoringHandler   *httpH.ScoringHandler
	PromotionHandler *httpH.PromotionHandler
	JobHandler       *httpH.JobHandler
	HealthHandler    *httpH.HealthHandler

	Metrics *observability.Metrics
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "dealdesk"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.CORS())
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.LineageHandler != nil {
			api.GET("/deals/:id/lineage", cfg.LineageHandler.GetLineage)
		}

		if cfg.ScoringHandler != nil {
			api.GET("/deals/:id/score", cfg.ScoringHandler.GetBreakdown)
			api.GET("/deals/:id/gate", cfg.ScoringHandler.GetGate)
		}

		if cfg.PromotionHandler != nil {
			api.POST("/deals/:id/segments/promote", cfg.PromotionHandler.Promote)
			api.GET("/deals/:id/promotions", cfg.PromotionHandler.ListRuns)
		}

		if cfg.JobHandler != nil {
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}
	}

	return r
}
