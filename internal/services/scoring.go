package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/scoring"
	"github.com/kierolabs/dealdesk-backend/internal/platform/apierr"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type ScoringService interface {
	Breakdown(dbc dbctx.Context, dealID uuid.UUID) (*scoring.Breakdown, error)
	Gate(dbc dbctx.Context, dealID uuid.UUID) (*scoring.GatePayload, error)
}

type scoringService struct {
	db        *gorm.DB
	log       *logger.Logger
	deals     repos.DealRepo
	documents repos.DealDocumentRepo
	claims    repos.ClaimRepo
	evidence  repos.EvidenceRepo
}

func NewScoringService(
	db *gorm.DB,
	baseLog *logger.Logger,
	deals repos.DealRepo,
	documents repos.DealDocumentRepo,
	claims repos.ClaimRepo,
	evidence repos.EvidenceRepo,
) ScoringService {
	return &scoringService{
		db:        db,
		log:       baseLog.With("service", "ScoringService"),
		deals:     deals,
		documents: documents,
		claims:    claims,
		evidence:  evidence,
	}
}

func (s *scoringService) Breakdown(dbc dbctx.Context, dealID uuid.UUID) (*scoring.Breakdown, error) {
	if _, err := s.deals.GetByID(dbc, dealID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apierr.NotFound("deal_not_found", err)
		}
		return nil, err
	}

	// Absent claim/evidence tables degrade to an empty breakdown; the
	// repos already answer empty when the migration never ran.
	claims, err := s.claims.GetByDealID(dbc, dealID)
	if err != nil {
		return nil, err
	}

	snippets := map[uuid.UUID]*types.EvidenceSnippet{}
	docs, err := s.documents.GetByDealID(dbc, dealID)
	if err != nil {
		s.log.Warn("document lookup failed, scoring without evidence", "deal_id", dealID, "error", err)
	} else {
		docIDs := make([]uuid.UUID, 0, len(docs))
		for _, d := range docs {
			docIDs = append(docIDs, d.ID)
		}
		rows, err := s.evidence.GetByDocumentIDs(dbc, docIDs)
		if err != nil {
			s.log.Warn("evidence lookup failed, scoring without evidence", "deal_id", dealID, "error", err)
		} else {
			for _, row := range rows {
				snippets[row.ID] = row
			}
		}
	}

	breakdown := scoring.BuildBreakdown(claims, snippets)
	return &breakdown, nil
}

func (s *scoringService) Gate(dbc dbctx.Context, dealID uuid.UUID) (*scoring.GatePayload, error) {
	breakdown, err := s.Breakdown(dbc, dealID)
	if err != nil {
		return nil, err
	}
	gate := scoring.BuildGate(breakdown.Sections)
	return &gate, nil
}
