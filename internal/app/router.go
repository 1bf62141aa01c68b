package app

import (
	"github.com/kierolabs/dealdesk-backend/internal/http"
	"github.com/kierolabs/dealdesk-backend/internal/observability"
)

func wireRouter(cfg Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		ServiceName:      cfg.ServiceName,
		HealthHandler:    handlers.Health,
		LineageHandler:   handlers.Lineage,
		ScoringHandler:   handlers.Scoring,
		PromotionHandler: handlers.Promotion,
		JobHandler:       handlers.Job,
		Metrics:          metrics,
	})
}
