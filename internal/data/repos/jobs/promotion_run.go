package jobs

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type PromotionRunRepo interface {
	Create(dbc dbctx.Context, run *types.PromotionRun) (*types.PromotionRun, error)
	GetByRunKey(dbc dbctx.Context, runKey string) (*types.PromotionRun, error)
	GetByDealID(dbc dbctx.Context, dealID uuid.UUID) ([]*types.PromotionRun, error)
}

type promotionRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromotionRunRepo(db *gorm.DB, baseLog *logger.Logger) PromotionRunRepo {
	return &promotionRunRepo{db: db, log: baseLog.With("repo", "PromotionRunRepo")}
}

func (r *promotionRunRepo) Create(dbc dbctx.Context, run *types.PromotionRun) (*types.PromotionRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *promotionRunRepo) GetByRunKey(dbc dbctx.Context, runKey string) (*types.PromotionRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.PromotionRun
	if err := transaction.WithContext(dbc.Ctx).
		Where("run_key = ?", runKey).
		First(&run).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *promotionRunRepo) GetByDealID(dbc dbctx.Context, dealID uuid.UUID) ([]*types.PromotionRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.PromotionRun
	if err := transaction.WithContext(dbc.Ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC, id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
