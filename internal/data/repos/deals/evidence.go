package deals

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type EvidenceRepo interface {
	Create(dbc dbctx.Context, snippets []*types.EvidenceSnippet) ([]*types.EvidenceSnippet, error)
	GetByIDs(dbc dbctx.Context, snippetIDs []uuid.UUID) ([]*types.EvidenceSnippet, error)
	GetByDocumentIDs(dbc dbctx.Context, docIDs []uuid.UUID) ([]*types.EvidenceSnippet, error)

	// Present reports whether the evidence_snippet table exists. The table
	// is optional: older deployments never ran the evidence migration, and
	// readers must degrade to "no evidence" rather than error.
	Present() bool
}

type evidenceRepo struct {
	db      *gorm.DB
	log     *logger.Logger
	present bool
}

func NewEvidenceRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceRepo {
	log := baseLog.With("repo", "EvidenceRepo")
	present := db.Migrator().HasTable(&types.EvidenceSnippet{})
	if !present {
		log.Warn("evidence_snippet table absent, evidence lookups degrade to empty")
	}
	return &evidenceRepo{db: db, log: log, present: present}
}

func (r *evidenceRepo) Present() bool { return r.present }

func (r *evidenceRepo) Create(dbc dbctx.Context, snippets []*types.EvidenceSnippet) ([]*types.EvidenceSnippet, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(snippets) == 0 || !r.present {
		return []*types.EvidenceSnippet{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&snippets).Error; err != nil {
		return nil, err
	}
	return snippets, nil
}

func (r *evidenceRepo) GetByIDs(dbc dbctx.Context, snippetIDs []uuid.UUID) ([]*types.EvidenceSnippet, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.EvidenceSnippet
	if len(snippetIDs) == 0 || !r.present {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", snippetIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *evidenceRepo) GetByDocumentIDs(dbc dbctx.Context, docIDs []uuid.UUID) ([]*types.EvidenceSnippet, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.EvidenceSnippet
	if len(docIDs) == 0 || !r.present {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id IN ?", docIDs).
		Order("document_id, created_at, id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
