package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	"github.com/kierolabs/dealdesk-backend/internal/data/repos/testutil"
	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/jobs/pipeline/segment_promote"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
	"github.com/kierolabs/dealdesk-backend/internal/platform/apierr"

	"github.com/kierolabs/dealdesk-backend/internal/clients/gcp"
	"github.com/kierolabs/dealdesk-backend/internal/clients/redis"
)

// memCache is an in-process stand-in for the redis graph cache.
type memCache struct {
	store map[string][]byte
}

func newMemCache() *memCache { return &memCache{store: map[string][]byte{}} }

func (m *memCache) key(dealID uuid.UUID, variant string) string {
	return dealID.String() + ":" + variant
}

func (m *memCache) Get(_ context.Context, dealID uuid.UUID, variant string) ([]byte, bool) {
	raw, ok := m.store[m.key(dealID, variant)]
	return raw, ok
}

func (m *memCache) Set(_ context.Context, dealID uuid.UUID, variant string, payload []byte) {
	m.store[m.key(dealID, variant)] = payload
}

func (m *memCache) Invalidate(_ context.Context, dealID uuid.UUID) error {
	for k := range m.store {
		if len(k) >= 36 && k[:36] == dealID.String() {
			delete(m.store, k)
		}
	}
	return nil
}

func (m *memCache) Close() error { return nil }

func newLineage(t *testing.T, cache redis.GraphCache) (LineageService, *types.Deal) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	deal := testutil.SeedDeal(t, db, "Acme Robotics", "Acme")
	svc := NewLineageService(
		db, log,
		repos.NewDealRepo(db, log),
		repos.NewDealDocumentRepo(db, log),
		repos.NewVisualAssetRepo(db, log),
		repos.NewExtractionRepo(db, log),
		repos.NewEvidenceRepo(db, log),
		cache,
		segment.DefaultRuleset(),
	)
	return svc, deal
}

func TestBuildGraphUnknownDealIs404(t *testing.T) {
	svc, _ := newLineage(t, redis.NopGraphCache{})
	_, err := svc.BuildGraph(testutil.Ctx(), uuid.New(), GraphOptions{})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 apierr", err)
	}
}

func TestBuildGraphPopulatesAndServesCache(t *testing.T) {
	cache := newMemCache()
	svc, deal := newLineage(t, cache)

	first, err := svc.BuildGraph(testutil.Ctx(), deal.ID, GraphOptions{})
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if len(cache.store) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(cache.store))
	}

	second, err := svc.BuildGraph(testutil.Ctx(), deal.ID, GraphOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("cached payload diverged:\n%s\n%s", a, b)
	}

	// A different option set is a different cache variant.
	if _, err := svc.BuildGraph(testutil.Ctx(), deal.ID, GraphOptions{DisableHints: true}); err != nil {
		t.Fatalf("variant build: %v", err)
	}
	if len(cache.store) != 2 {
		t.Fatalf("cache entries = %d, want 2", len(cache.store))
	}
}

func TestScoringBreakdownRoutesClaims(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	deal := testutil.SeedDeal(t, db, "Acme Robotics", "Acme")
	doc := testutil.SeedDocument(t, db, deal.ID, "deck.pptx", types.DocTypePPTX, 4)
	snip := testutil.SeedEvidence(t, db, doc.ID, nil, "ARR doubled year over year")

	refs, _ := json.Marshal([]string{snip.ID.String()})
	testutil.SeedClaim(t, db, deal.ID, "traction", "ARR doubled", datatypes.JSON(refs))

	svc := NewScoringService(db, log,
		repos.NewDealRepo(db, log),
		repos.NewDealDocumentRepo(db, log),
		repos.NewClaimRepo(db, log),
		repos.NewEvidenceRepo(db, log),
	)

	breakdown, err := svc.Breakdown(testutil.Ctx(), deal.ID)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	found := false
	for _, s := range breakdown.Sections {
		if s.Key == "traction" {
			found = true
			if s.EvidenceLinked != 1 || s.EvidenceTotal != 1 {
				t.Fatalf("traction linked/total = %d/%d, want 1/1", s.EvidenceLinked, s.EvidenceTotal)
			}
		}
	}
	if !found {
		t.Fatalf("traction section missing from breakdown")
	}

	gate, err := svc.Gate(testutil.Ctx(), deal.ID)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	if gate.EvidenceLinked != 1 {
		t.Fatalf("gate linked = %d, want 1", gate.EvidenceLinked)
	}
}

func TestScoringBreakdownEmptyDeal(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	deal := testutil.SeedDeal(t, db, "Acme Robotics", "Acme")

	svc := NewScoringService(db, log,
		repos.NewDealRepo(db, log),
		repos.NewDealDocumentRepo(db, log),
		repos.NewClaimRepo(db, log),
		repos.NewEvidenceRepo(db, log),
	)
	breakdown, err := svc.Breakdown(testutil.Ctx(), deal.ID)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if breakdown.EvidenceTotal != 0 {
		t.Fatalf("evidence total = %d, want 0", breakdown.EvidenceTotal)
	}
	gate, err := svc.Gate(testutil.Ctx(), deal.ID)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	if gate.Status != "block" {
		t.Fatalf("gate status = %q, want block with no evidence", gate.Status)
	}
}

func newPromotion(t *testing.T) (PromotionService, *types.Deal, repos.JobRunRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	deal := testutil.SeedDeal(t, db, "Acme Robotics", "Acme")

	dealRepo := repos.NewDealRepo(db, log)
	jobRepo := repos.NewJobRunRepo(db, log)
	promotionRepo := repos.NewPromotionRunRepo(db, log)
	pipeline := segment_promote.New(
		db, log,
		dealRepo,
		repos.NewDealDocumentRepo(db, log),
		repos.NewVisualAssetRepo(db, log),
		repos.NewExtractionRepo(db, log),
		promotionRepo,
		redis.NopGraphCache{}, gcp.NopArtifactStore{}, segment.DefaultRuleset(),
	)
	svc := NewPromotionService(db, log, dealRepo, jobRepo, promotionRepo, pipeline)
	return svc, deal, jobRepo
}

func floatPtr(v float64) *float64 { return &v }

func TestEnqueueRejectsMisorderedThresholds(t *testing.T) {
	svc, deal, _ := newPromotion(t)
	_, err := svc.Enqueue(testutil.Ctx(), PromotionRequest{
		DealID:       deal.ID,
		RejectBelow:  floatPtr(0.9),
		AutoAcceptAt: floatPtr(0.2),
	})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want apierr", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "invalid_thresholds" {
		t.Fatalf("got %d/%s, want 400/invalid_thresholds", apiErr.Status, apiErr.Code)
	}
}

func TestEnqueueRejectsOutOfRangeThresholds(t *testing.T) {
	svc, deal, _ := newPromotion(t)
	_, err := svc.Enqueue(testutil.Ctx(), PromotionRequest{
		DealID:       deal.ID,
		AutoAcceptAt: floatPtr(1.5),
	})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Code != "invalid_thresholds" {
		t.Fatalf("err = %v, want invalid_thresholds apierr", err)
	}
}

func TestEnqueueCreatesQueuedJob(t *testing.T) {
	svc, deal, jobRepo := newPromotion(t)
	job, err := svc.Enqueue(testutil.Ctx(), PromotionRequest{
		DealID:   deal.ID,
		RunKey:   "deal:" + deal.ID.String() + ":v1:manual",
		ReviewAt: floatPtr(0.7),
		DryRun:   true,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.Status != types.JobStatusQueued || job.JobType != "segment_promote" {
		t.Fatalf("job = %s/%s, want queued segment_promote", job.Status, job.JobType)
	}

	stored, err := jobRepo.GetByID(testutil.Ctx(), job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(stored.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["deal_id"] != deal.ID.String() || payload["review_at"] != 0.7 || payload["dry_run"] != true {
		t.Fatalf("payload = %v", payload)
	}
}

func TestRunNowExecutesSynchronously(t *testing.T) {
	svc, deal, _ := newPromotion(t)
	job, err := svc.RunNow(testutil.Ctx(), PromotionRequest{DealID: deal.ID})
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if job.Status != types.JobStatusSucceeded {
		t.Fatalf("job status = %q (error %q), want succeeded", job.Status, job.Error)
	}

	runs, err := svc.History(testutil.Ctx(), deal.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("history runs = %d, want 1", len(runs))
	}
}

func TestEnqueueUnknownDealIs404(t *testing.T) {
	svc, _, _ := newPromotion(t)
	_, err := svc.Enqueue(testutil.Ctx(), PromotionRequest{DealID: uuid.New()})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 apierr", err)
	}
}
