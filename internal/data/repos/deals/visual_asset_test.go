package deals_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos/deals"
	"github.com/kierolabs/dealdesk-backend/internal/data/repos/testutil"
	types "github.com/kierolabs/dealdesk-backend/internal/domain"
)

func TestUpdateQualityFlagsSkipsUnchangedValue(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := deals.NewVisualAssetRepo(db, log)
	dbc := testutil.Ctx()

	deal := testutil.SeedDeal(t, db, "Acme Seed", "Acme")
	doc := testutil.SeedDocument(t, db, deal.ID, "deck.pdf", types.DocTypePDF, 10)
	asset := testutil.SeedVisualAsset(t, db, doc.ID, types.AssetKindVisionPage, 3, 0)

	flags, _ := json.Marshal(map[string]interface{}{
		"segment_key":        "traction",
		"segment_source":     "computed",
		"segment_confidence": 0.64,
	})

	changed, err := repo.UpdateQualityFlags(dbc, asset.ID, flags)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if changed != 1 {
		t.Fatalf("first update changed %d rows, want 1", changed)
	}

	// Replaying the identical payload must be a no-op write.
	changed, err = repo.UpdateQualityFlags(dbc, asset.ID, flags)
	if err != nil {
		t.Fatalf("replay update: %v", err)
	}
	if changed != 0 {
		t.Fatalf("replay update changed %d rows, want 0", changed)
	}

	other, _ := json.Marshal(map[string]interface{}{
		"segment_key":    "traction",
		"segment_source": "human_override",
	})
	changed, err = repo.UpdateQualityFlags(dbc, asset.ID, other)
	if err != nil {
		t.Fatalf("third update: %v", err)
	}
	if changed != 1 {
		t.Fatalf("differing update changed %d rows, want 1", changed)
	}
}

func TestGetByDocumentIDsOrdersByPosition(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := deals.NewVisualAssetRepo(db, log)
	dbc := testutil.Ctx()

	deal := testutil.SeedDeal(t, db, "Acme Seed", "Acme")
	doc := testutil.SeedDocument(t, db, deal.ID, "deck.pptx", types.DocTypePPTX, 0)

	// Insert out of order.
	testutil.SeedVisualAsset(t, db, doc.ID, types.AssetKindSlide, 2, 0)
	testutil.SeedVisualAsset(t, db, doc.ID, types.AssetKindSlide, 0, 1)
	testutil.SeedVisualAsset(t, db, doc.ID, types.AssetKindSlide, 0, 0)

	got, err := repo.GetByDocumentIDs(dbc, []uuid.UUID{doc.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d assets, want 3", len(got))
	}
	wantOrder := [][2]int{{0, 0}, {0, 1}, {2, 0}}
	for i, asset := range got {
		if asset.PageIndex != wantOrder[i][0] || asset.PositionIndex != wantOrder[i][1] {
			t.Fatalf("asset %d at page=%d pos=%d, want page=%d pos=%d",
				i, asset.PageIndex, asset.PositionIndex, wantOrder[i][0], wantOrder[i][1])
		}
	}
}

func TestLatestExtractionWinsPerAsset(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := deals.NewExtractionRepo(db, log)
	dbc := testutil.Ctx()

	deal := testutil.SeedDeal(t, db, "Acme Seed", "Acme")
	doc := testutil.SeedDocument(t, db, deal.ID, "deck.pdf", types.DocTypePDF, 1)
	asset := testutil.SeedVisualAsset(t, db, doc.ID, types.AssetKindVisionPage, 0, 0)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.SeedExtraction(t, db, asset.ID, base, "stale ocr text", "stale")
	testutil.SeedExtraction(t, db, asset.ID, base.Add(time.Hour), "fresh ocr text", "fresh")

	latest, err := repo.LatestByAssetIDs(dbc, []uuid.UUID{asset.ID})
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	ex, ok := latest[asset.ID]
	if !ok {
		t.Fatalf("no extraction returned for asset")
	}
	if ex.Summary != "fresh" {
		t.Fatalf("got summary %q, want the most recent attempt", ex.Summary)
	}
}
