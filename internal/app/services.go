package app

import (
	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/clients/gcp"
	"github.com/kierolabs/dealdesk-backend/internal/clients/redis"
	"github.com/kierolabs/dealdesk-backend/internal/jobs/pipeline/segment_promote"
	jobruntime "github.com/kierolabs/dealdesk-backend/internal/jobs/runtime"
	"github.com/kierolabs/dealdesk-backend/internal/jobs/worker"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
	"github.com/kierolabs/dealdesk-backend/internal/services"
)

type Services struct {
	Lineage   services.LineageService
	Scoring   services.ScoringService
	Promotion services.PromotionService

	GraphCache    redis.GraphCache
	ArtifactStore gcp.ArtifactStore
	Ruleset       segment.Ruleset

	JobRegistry *jobruntime.Registry
	JobWorker   *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	ruleset := segment.DefaultRuleset()
	if cfg.RulesetPath != "" {
		loaded, err := segment.LoadRuleset(cfg.RulesetPath)
		if err != nil {
			log.Warn("ruleset load failed, using built-in rules", "path", cfg.RulesetPath, "error", err)
		} else {
			ruleset = loaded
		}
	}

	graphCache, err := redis.NewGraphCache(log)
	if err != nil {
		log.Warn("graph cache unavailable, serving uncached", "error", err)
		graphCache = redis.NopGraphCache{}
	}

	artifacts, err := gcp.NewArtifactStore(log)
	if err != nil {
		log.Warn("artifact store unavailable, reports stay in postgres only", "error", err)
		artifacts = gcp.NopArtifactStore{}
	}

	promotePipeline := segment_promote.New(
		db, log,
		reposet.Deal, reposet.DealDocument, reposet.VisualAsset,
		reposet.Extraction, reposet.PromotionRun,
		graphCache, artifacts, ruleset,
	)

	registry := jobruntime.NewRegistry()
	registry.Register(promotePipeline)

	jobWorker := worker.New(db, log, reposet.JobRun, registry)

	return Services{
		Lineage: services.NewLineageService(
			db, log,
			reposet.Deal, reposet.DealDocument, reposet.VisualAsset,
			reposet.Extraction, reposet.Evidence,
			graphCache, ruleset,
		),
		Scoring: services.NewScoringService(
			db, log,
			reposet.Deal, reposet.DealDocument, reposet.Claim, reposet.Evidence,
		),
		Promotion: services.NewPromotionService(
			db, log,
			reposet.Deal, reposet.JobRun, reposet.PromotionRun, promotePipeline,
		),
		GraphCache:    graphCache,
		ArtifactStore: artifacts,
		Ruleset:       ruleset,
		JobRegistry:   registry,
		JobWorker:     jobWorker,
	}, nil
}
