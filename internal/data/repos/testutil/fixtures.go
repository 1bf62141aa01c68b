package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
)

// RandomSuffix returns a short hex string for schema / database names.
func RandomSuffix() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// Seed helpers assign IDs up front so fixtures can cross-reference each
// other before insert.

func SeedDeal(tb testing.TB, db *gorm.DB, name, company string) *types.Deal {
	tb.Helper()
	deal := &types.Deal{ID: uuid.New(), Name: name, Company: company, Stage: "intake"}
	if err := db.Create(deal).Error; err != nil {
		tb.Fatalf("seed deal: %v", err)
	}
	return deal
}

func SeedDocument(tb testing.TB, db *gorm.DB, dealID uuid.UUID, title, docType string, pageCount int) *types.DealDocument {
	tb.Helper()
	now := time.Now().UTC()
	doc := &types.DealDocument{
		ID:         uuid.New(),
		DealID:     dealID,
		Title:      title,
		DocType:    docType,
		PageCount:  pageCount,
		UploadedAt: &now,
	}
	if err := db.Create(doc).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return doc
}

func SeedVisualAsset(tb testing.TB, db *gorm.DB, docID uuid.UUID, kind string, pageIndex, positionIndex int) *types.VisualAsset {
	tb.Helper()
	asset := &types.VisualAsset{
		ID:               uuid.New(),
		DocumentID:       docID,
		PageIndex:        pageIndex,
		PositionIndex:    positionIndex,
		AssetKind:        kind,
		ExtractorVersion: "test_v1",
		Confidence:       0.9,
	}
	if err := db.Create(asset).Error; err != nil {
		tb.Fatalf("seed visual asset: %v", err)
	}
	return asset
}

func SeedExtraction(tb testing.TB, db *gorm.DB, assetID uuid.UUID, attemptedAt time.Time, ocrText, summary string) *types.Extraction {
	tb.Helper()
	ex := &types.Extraction{
		ID:            uuid.New(),
		VisualAssetID: assetID,
		AttemptedAt:   attemptedAt,
		OCRText:       ocrText,
		Summary:       summary,
		Units:         1,
		Confidence:    0.8,
	}
	if err := db.Create(ex).Error; err != nil {
		tb.Fatalf("seed extraction: %v", err)
	}
	return ex
}

func SeedEvidence(tb testing.TB, db *gorm.DB, docID uuid.UUID, assetID *uuid.UUID, text string) *types.EvidenceSnippet {
	tb.Helper()
	snip := &types.EvidenceSnippet{
		ID:            uuid.New(),
		DocumentID:    docID,
		VisualAssetID: assetID,
		Text:          text,
		Kind:          "quote",
	}
	if err := db.Create(snip).Error; err != nil {
		tb.Fatalf("seed evidence: %v", err)
	}
	return snip
}

func SeedClaim(tb testing.TB, db *gorm.DB, dealID uuid.UUID, category, text string, refs datatypes.JSON) *types.Claim {
	tb.Helper()
	claim := &types.Claim{
		ID:           uuid.New(),
		DealID:       dealID,
		Category:     category,
		Text:         text,
		Confidence:   0.7,
		EvidenceRefs: refs,
	}
	if err := db.Create(claim).Error; err != nil {
		tb.Fatalf("seed claim: %v", err)
	}
	return claim
}
