package deals

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type DealDocumentRepo interface {
	Create(dbc dbctx.Context, docs []*types.DealDocument) ([]*types.DealDocument, error)
	GetByIDs(dbc dbctx.Context, docIDs []uuid.UUID) ([]*types.DealDocument, error)
	GetByDealID(dbc dbctx.Context, dealID uuid.UUID) ([]*types.DealDocument, error)
}

type dealDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDealDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DealDocumentRepo {
	return &dealDocumentRepo{db: db, log: baseLog.With("repo", "DealDocumentRepo")}
}

func (r *dealDocumentRepo) Create(dbc dbctx.Context, docs []*types.DealDocument) ([]*types.DealDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(docs) == 0 {
		return []*types.DealDocument{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *dealDocumentRepo) GetByIDs(dbc dbctx.Context, docIDs []uuid.UUID) ([]*types.DealDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.DealDocument
	if len(docIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", docIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *dealDocumentRepo) GetByDealID(dbc dbctx.Context, dealID uuid.UUID) ([]*types.DealDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.DealDocument
	if err := transaction.WithContext(dbc.Ctx).
		Where("deal_id = ?", dealID).
		Order("created_at, id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
