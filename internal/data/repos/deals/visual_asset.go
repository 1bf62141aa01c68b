package deals

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type VisualAssetRepo interface {
	Create(dbc dbctx.Context, assets []*types.VisualAsset) ([]*types.VisualAsset, error)
	GetByIDs(dbc dbctx.Context, assetIDs []uuid.UUID) ([]*types.VisualAsset, error)
	GetByDocumentIDs(dbc dbctx.Context, docIDs []uuid.UUID) ([]*types.VisualAsset, error)

	// UpdateQualityFlags replaces the annotation map only when the stored
	// value actually differs, so replayed promotion runs match zero rows.
	// Returns the number of rows changed.
	UpdateQualityFlags(dbc dbctx.Context, assetID uuid.UUID, flags []byte) (int64, error)
}

type visualAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVisualAssetRepo(db *gorm.DB, baseLog *logger.Logger) VisualAssetRepo {
	return &visualAssetRepo{db: db, log: baseLog.With("repo", "VisualAssetRepo")}
}

func (r *visualAssetRepo) Create(dbc dbctx.Context, assets []*types.VisualAsset) ([]*types.VisualAsset, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(assets) == 0 {
		return []*types.VisualAsset{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *visualAssetRepo) GetByIDs(dbc dbctx.Context, assetIDs []uuid.UUID) ([]*types.VisualAsset, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.VisualAsset
	if len(assetIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", assetIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *visualAssetRepo) GetByDocumentIDs(dbc dbctx.Context, docIDs []uuid.UUID) ([]*types.VisualAsset, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.VisualAsset
	if len(docIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id IN ?", docIDs).
		Order("document_id, page_index, position_index, created_at, id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *visualAssetRepo) UpdateQualityFlags(dbc dbctx.Context, assetID uuid.UUID, flags []byte) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(dbc.Ctx).
		Model(&types.VisualAsset{}).
		Where("id = ?", assetID)
	if transaction.Dialector.Name() == "postgres" {
		query = query.Where("quality_flags IS DISTINCT FROM ?::jsonb", string(flags))
	} else {
		query = query.Where("quality_flags IS NULL OR quality_flags <> ?", string(flags))
	}
	res := query.Update("quality_flags", datatypes.JSON(flags))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
