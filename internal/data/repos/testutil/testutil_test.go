package testutil

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
)

// The in-memory fallback has to migrate every model and assign IDs and
// timestamps without postgres-only SQL defaults.
func TestDBMigratesAndAssignsIDs(t *testing.T) {
	db := DB(t)

	deal := &types.Deal{Name: "Acme Robotics", Company: "Acme"}
	if err := db.Create(deal).Error; err != nil {
		t.Fatalf("create deal: %v", err)
	}
	if deal.ID == uuid.Nil {
		t.Fatalf("deal ID not assigned")
	}
	if deal.CreatedAt.IsZero() {
		t.Fatalf("deal CreatedAt not assigned")
	}

	doc := &types.DealDocument{DealID: deal.ID, Title: "deck.pdf", DocType: types.DocTypePDF}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("create document: %v", err)
	}
	asset := &types.VisualAsset{DocumentID: doc.ID, AssetKind: types.AssetKindSlide}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}
	extraction := &types.Extraction{VisualAssetID: asset.ID}
	if err := db.Create(extraction).Error; err != nil {
		t.Fatalf("create extraction: %v", err)
	}
	if extraction.AttemptedAt.IsZero() {
		t.Fatalf("extraction AttemptedAt not assigned")
	}
	snippet := &types.EvidenceSnippet{DocumentID: doc.ID, Text: "ARR grew 3x"}
	if err := db.Create(snippet).Error; err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	claim := &types.Claim{DealID: deal.ID, Category: "traction"}
	if err := db.Create(claim).Error; err != nil {
		t.Fatalf("create claim: %v", err)
	}
	job := &types.JobRun{JobType: "segment_promote", Status: types.JobStatusQueued}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	run := &types.PromotionRun{DealID: deal.ID, RunKey: "k1", RulesetVersion: "v1"}
	if err := db.Create(run).Error; err != nil {
		t.Fatalf("create promotion run: %v", err)
	}

	for i, id := range []uuid.UUID{doc.ID, asset.ID, extraction.ID, snippet.ID, claim.ID, job.ID, run.ID} {
		if id == uuid.Nil {
			t.Fatalf("row %d: ID not assigned", i)
		}
	}
}
