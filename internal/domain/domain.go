package domain

import (
	"github.com/kierolabs/dealdesk-backend/internal/domain/deals"
	"github.com/kierolabs/dealdesk-backend/internal/domain/jobs"
)

// Aliases so callers can import a single `types` package.

type (
	Deal            = deals.Deal
	DealDocument    = deals.DealDocument
	VisualAsset     = deals.VisualAsset
	Extraction      = deals.Extraction
	EvidenceSnippet = deals.EvidenceSnippet
	Claim           = deals.Claim

	JobRun       = jobs.JobRun
	PromotionRun = jobs.PromotionRun
)

const (
	DocTypePDF   = deals.DocTypePDF
	DocTypePPTX  = deals.DocTypePPTX
	DocTypeDOCX  = deals.DocTypeDOCX
	DocTypeXLSX  = deals.DocTypeXLSX
	DocTypeImage = deals.DocTypeImage

	AssetKindVisionPage  = deals.AssetKindVisionPage
	AssetKindSlide       = deals.AssetKindSlide
	AssetKindWordSection = deals.AssetKindWordSection
	AssetKindSheetBlock  = deals.AssetKindSheetBlock

	CoveragePresent = deals.CoveragePresent
	CoveragePartial = deals.CoveragePartial
	CoverageMissing = deals.CoverageMissing

	SupportSupported = deals.SupportSupported
	SupportWeak      = deals.SupportWeak
	SupportMissing   = deals.SupportMissing
	SupportUnknown   = deals.SupportUnknown

	JobStatusQueued    = jobs.JobStatusQueued
	JobStatusRunning   = jobs.JobStatusRunning
	JobStatusSucceeded = jobs.JobStatusSucceeded
	JobStatusFailed    = jobs.JobStatusFailed
)
