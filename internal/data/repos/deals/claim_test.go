package deals_test

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos/deals"
	"github.com/kierolabs/dealdesk-backend/internal/data/repos/testutil"
	types "github.com/kierolabs/dealdesk-backend/internal/domain"
)

func TestClaimRepoPresent(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := deals.NewClaimRepo(db, log)
	dbc := testutil.Ctx()

	if !repo.Present() {
		t.Fatalf("claim table migrated but repo reports absent")
	}

	deal := testutil.SeedDeal(t, db, "Acme Seed", "Acme")
	testutil.SeedClaim(t, db, deal.ID, "traction", "ARR grew 3x YoY", datatypes.JSON(`[]`))
	testutil.SeedClaim(t, db, deal.ID, "team", "founding team of 4", nil)

	claims, err := repo.GetByDealID(dbc, deal.ID)
	if err != nil {
		t.Fatalf("get claims: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(claims))
	}
}

func TestClaimRepoAbsentTableDegradesToEmpty(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)

	if err := db.Migrator().DropTable(&types.Claim{}); err != nil {
		t.Fatalf("drop claim table: %v", err)
	}

	repo := deals.NewClaimRepo(db, log)
	if repo.Present() {
		t.Fatalf("claim table dropped but repo reports present")
	}

	claims, err := repo.GetByDealID(testutil.Ctx(), uuid.New())
	if err != nil {
		t.Fatalf("absent table must not error: %v", err)
	}
	if len(claims) != 0 {
		t.Fatalf("absent table returned %d claims, want 0", len(claims))
	}
}

func TestEvidenceRepoAbsentTableDegradesToEmpty(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)

	if err := db.Migrator().DropTable(&types.EvidenceSnippet{}); err != nil {
		t.Fatalf("drop evidence table: %v", err)
	}

	repo := deals.NewEvidenceRepo(db, log)
	if repo.Present() {
		t.Fatalf("evidence table dropped but repo reports present")
	}

	snips, err := repo.GetByDocumentIDs(testutil.Ctx(), []uuid.UUID{uuid.New()})
	if err != nil {
		t.Fatalf("absent table must not error: %v", err)
	}
	if len(snips) != 0 {
		t.Fatalf("absent table returned %d snippets, want 0", len(snips))
	}
}

func TestEvidenceRepoFreeFloatingSnippets(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := deals.NewEvidenceRepo(db, log)
	dbc := testutil.Ctx()

	deal := testutil.SeedDeal(t, db, "Acme Seed", "Acme")
	doc := testutil.SeedDocument(t, db, deal.ID, "memo.docx", types.DocTypeDOCX, 0)
	asset := testutil.SeedVisualAsset(t, db, doc.ID, types.AssetKindWordSection, 0, 0)

	testutil.SeedEvidence(t, db, doc.ID, &asset.ID, "anchored quote")
	testutil.SeedEvidence(t, db, doc.ID, nil, "free-floating quote")

	snips, err := repo.GetByDocumentIDs(dbc, []uuid.UUID{doc.ID})
	if err != nil {
		t.Fatalf("get snippets: %v", err)
	}
	if len(snips) != 2 {
		t.Fatalf("got %d snippets, want 2", len(snips))
	}
	var anchored, floating int
	for _, s := range snips {
		if s.VisualAssetID == nil {
			floating++
		} else {
			anchored++
		}
	}
	if anchored != 1 || floating != 1 {
		t.Fatalf("anchored=%d floating=%d, want 1 and 1", anchored, floating)
	}
}
