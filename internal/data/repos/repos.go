package repos

import (
	"github.com/kierolabs/dealdesk-backend/internal/data/repos/deals"
	"github.com/kierolabs/dealdesk-backend/internal/data/repos/jobs"
)

type DealRepo = deals.DealRepo
type DealDocumentRepo = deals.DealDocumentRepo
type VisualAssetRepo = deals.VisualAssetRepo
type ExtractionRepo = deals.ExtractionRepo
type EvidenceRepo = deals.EvidenceRepo
type ClaimRepo = deals.ClaimRepo

type JobRunRepo = jobs.JobRunRepo
type PromotionRunRepo = jobs.PromotionRunRepo

var NewDealRepo = deals.NewDealRepo
var NewDealDocumentRepo = deals.NewDealDocumentRepo
var NewVisualAssetRepo = deals.NewVisualAssetRepo
var NewExtractionRepo = deals.NewExtractionRepo
var NewEvidenceRepo = deals.NewEvidenceRepo
var NewClaimRepo = deals.NewClaimRepo

var NewJobRunRepo = jobs.NewJobRunRepo
var NewPromotionRunRepo = jobs.NewPromotionRunRepo
