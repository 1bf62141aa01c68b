package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/clients/redis"
	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/graph"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
	"github.com/kierolabs/dealdesk-backend/internal/observability"
	"github.com/kierolabs/dealdesk-backend/internal/platform/apierr"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

// GraphOptions are the caller-facing build switches. Debug and RawView
// only reach this layer when diagnostics are enabled on the deployment.
type GraphOptions struct {
	RawView      bool
	Debug        bool
	DisableHints bool
}

func (o GraphOptions) cacheVariant() string {
	return fmt.Sprintf("raw=%t:debug=%t:nohints=%t", o.RawView, o.Debug, o.DisableHints)
}

type LineageService interface {
	BuildGraph(dbc dbctx.Context, dealID uuid.UUID, opts GraphOptions) (*graph.Payload, error)
}

type lineageService struct {
	db      *gorm.DB
	log     *logger.Logger
	builder *graph.Builder
	cache   redis.GraphCache
}

func NewLineageService(
	db *gorm.DB,
	baseLog *logger.Logger,
	deals repos.DealRepo,
	documents repos.DealDocumentRepo,
	assets repos.VisualAssetRepo,
	extractions repos.ExtractionRepo,
	evidence repos.EvidenceRepo,
	cache redis.GraphCache,
	ruleset segment.Ruleset,
) LineageService {
	log := baseLog.With("service", "LineageService")
	return &lineageService{
		db:  db,
		log: log,
		builder: &graph.Builder{
			Deals:       deals,
			Documents:   documents,
			Assets:      assets,
			Extractions: extractions,
			Evidence:    evidence,
			Ruleset:     ruleset,
			Log:         log,
		},
		cache: cache,
	}
}

// BuildGraph is a read-through over the redis cache. Graphs are
// deterministic for unchanged data, so serving the cached bytes is
// equivalent to rebuilding; cache failures just mean a rebuild.
func (s *lineageService) BuildGraph(dbc dbctx.Context, dealID uuid.UUID, opts GraphOptions) (*graph.Payload, error) {
	metrics := observability.Current()
	variant := opts.cacheVariant()
	if s.cache != nil {
		if raw, ok := s.cache.Get(dbc.Ctx, dealID, variant); ok {
			var payload graph.Payload
			if err := json.Unmarshal(raw, &payload); err == nil {
				metrics.IncGraphCacheRead(true)
				return &payload, nil
			}
			s.log.Warn("discarding undecodable cached graph", "deal_id", dealID)
		}
		metrics.IncGraphCacheRead(false)
	}

	start := time.Now()
	payload, err := s.builder.Build(dbc, dealID, graph.Options{
		RawView:      opts.RawView,
		Debug:        opts.Debug,
		DisableHints: opts.DisableHints,
	})
	if err != nil {
		metrics.ObserveGraphBuild("error", 0, time.Since(start))
		if err == gorm.ErrRecordNotFound {
			return nil, apierr.NotFound("deal_not_found", err)
		}
		return nil, err
	}
	metrics.ObserveGraphBuild("ok", len(payload.Warnings), time.Since(start))

	if s.cache != nil {
		if raw, err := json.Marshal(payload); err == nil {
			s.cache.Set(dbc.Ctx, dealID, variant, raw)
		}
	}
	return payload, nil
}
