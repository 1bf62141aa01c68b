package deals

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type ClaimRepo interface {
	Create(dbc dbctx.Context, claims []*types.Claim) ([]*types.Claim, error)
	GetByDealID(dbc dbctx.Context, dealID uuid.UUID) ([]*types.Claim, error)

	// Present reports whether the claim table exists; see EvidenceRepo.
	Present() bool
}

type claimRepo struct {
	db      *gorm.DB
	log     *logger.Logger
	present bool
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
	log := baseLog.With("repo", "ClaimRepo")
	present := db.Migrator().HasTable(&types.Claim{})
	if !present {
		log.Warn("claim table absent, score breakdowns degrade to empty")
	}
	return &claimRepo{db: db, log: log, present: present}
}

func (r *claimRepo) Present() bool { return r.present }

func (r *claimRepo) Create(dbc dbctx.Context, claims []*types.Claim) ([]*types.Claim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(claims) == 0 || !r.present {
		return []*types.Claim{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *claimRepo) GetByDealID(dbc dbctx.Context, dealID uuid.UUID) ([]*types.Claim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Claim
	if !r.present {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("deal_id = ?", dealID).
		Order("created_at, id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
