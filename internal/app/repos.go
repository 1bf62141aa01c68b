package app

import (
	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type Repos struct {
	Deal         repos.DealRepo
	DealDocument repos.DealDocumentRepo
	VisualAsset  repos.VisualAssetRepo
	Extraction   repos.ExtractionRepo
	Evidence     repos.EvidenceRepo
	Claim        repos.ClaimRepo
	JobRun       repos.JobRunRepo
	PromotionRun repos.PromotionRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Deal:         repos.NewDealRepo(db, log),
		DealDocument: repos.NewDealDocumentRepo(db, log),
		VisualAsset:  repos.NewVisualAssetRepo(db, log),
		Extraction:   repos.NewExtractionRepo(db, log),
		Evidence:     repos.NewEvidenceRepo(db, log),
		Claim:        repos.NewClaimRepo(db, log),
		JobRun:       repos.NewJobRunRepo(db, log),
		PromotionRun: repos.NewPromotionRunRepo(db, log),
	}
}
