package deals

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type ExtractionRepo interface {
	Create(dbc dbctx.Context, extractions []*types.Extraction) ([]*types.Extraction, error)

	// LatestByAssetIDs returns at most one extraction per asset: the most
	// recent attempt.
	LatestByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) (map[uuid.UUID]*types.Extraction, error)
}

type extractionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExtractionRepo(db *gorm.DB, baseLog *logger.Logger) ExtractionRepo {
	return &extractionRepo{db: db, log: baseLog.With("repo", "ExtractionRepo")}
}

func (r *extractionRepo) Create(dbc dbctx.Context, extractions []*types.Extraction) ([]*types.Extraction, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(extractions) == 0 {
		return []*types.Extraction{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&extractions).Error; err != nil {
		return nil, err
	}
	return extractions, nil
}

func (r *extractionRepo) LatestByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) (map[uuid.UUID]*types.Extraction, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[uuid.UUID]*types.Extraction{}
	if len(assetIDs) == 0 {
		return out, nil
	}
	var rows []*types.Extraction
	if err := transaction.WithContext(dbc.Ctx).
		Where("visual_asset_id IN ?", assetIDs).
		Order("visual_asset_id, attempted_at DESC, created_at DESC, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, seen := out[row.VisualAssetID]; !seen {
			out[row.VisualAssetID] = row
		}
	}
	return out, nil
}
