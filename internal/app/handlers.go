package app

import (
	httpH "github.com/kierolabs/dealdesk-backend/internal/http/handlers"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Lineage   *httpH.LineageHandler
	Scoring   *httpH.ScoringHandler
	Promotion *httpH.PromotionHandler
	Job       *httpH.JobHandler
}

func wireHandlers(log *logger.Logger, cfg Config, reposet Repos, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(),
		Lineage:   httpH.NewLineageHandler(serviceset.Lineage, cfg.Diagnostics),
		Scoring:   httpH.NewScoringHandler(serviceset.Scoring),
		Promotion: httpH.NewPromotionHandler(serviceset.Promotion, cfg.PromoteRunNow),
		Job:       httpH.NewJobHandler(reposet.JobRun),
	}
}
