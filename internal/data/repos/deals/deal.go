package deals

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type DealRepo interface {
	Create(dbc dbctx.Context, deals []*types.Deal) ([]*types.Deal, error)
	GetByID(dbc dbctx.Context, dealID uuid.UUID) (*types.Deal, error)
	UpdateStage(dbc dbctx.Context, dealID uuid.UUID, stage string) error
}

type dealRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDealRepo(db *gorm.DB, baseLog *logger.Logger) DealRepo {
	return &dealRepo{db: db, log: baseLog.With("repo", "DealRepo")}
}

func (r *dealRepo) Create(dbc dbctx.Context, deals []*types.Deal) ([]*types.Deal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(deals) == 0 {
		return []*types.Deal{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

func (r *dealRepo) GetByID(dbc dbctx.Context, dealID uuid.UUID) (*types.Deal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var deal types.Deal
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", dealID).
		First(&deal).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *dealRepo) UpdateStage(dbc dbctx.Context, dealID uuid.UUID, stage string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Deal{}).
		Where("id = ?", dealID).
		Update("stage", stage).Error
}
