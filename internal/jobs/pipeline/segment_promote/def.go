// Package segment_promote is the batch rescore job: it re-runs the
// segment classifier over a deal's stored visual assets, compares the
// results to persisted labels, and promotes high-confidence changes into
// the assets' quality flags.
package segment_promote

import (
	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/clients/gcp"
	"github.com/kierolabs/dealdesk-backend/internal/clients/redis"
	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type Pipeline struct {
	db          *gorm.DB
	log         *logger.Logger
	deals       repos.DealRepo
	documents   repos.DealDocumentRepo
	assets      repos.VisualAssetRepo
	extractions repos.ExtractionRepo
	promotions  repos.PromotionRunRepo
	cache       redis.GraphCache
	artifacts   gcp.ArtifactStore
	ruleset     segment.Ruleset
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	deals repos.DealRepo,
	documents repos.DealDocumentRepo,
	assets repos.VisualAssetRepo,
	extractions repos.ExtractionRepo,
	promotions repos.PromotionRunRepo,
	cache redis.GraphCache,
	artifacts gcp.ArtifactStore,
	ruleset segment.Ruleset,
) *Pipeline {
	return &Pipeline{
		db:          db,
		log:         baseLog.With("job", "segment_promote"),
		deals:       deals,
		documents:   documents,
		assets:      assets,
		extractions: extractions,
		promotions:  promotions,
		cache:       cache,
		artifacts:   artifacts,
		ruleset:     ruleset,
	}
}

func (p *Pipeline) Type() string { return "segment_promote" }
