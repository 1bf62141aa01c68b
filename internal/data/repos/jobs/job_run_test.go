package jobs_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos/jobs"
	"github.com/kierolabs/dealdesk-backend/internal/data/repos/testutil"
	types "github.com/kierolabs/dealdesk-backend/internal/domain"
)

func TestClaimNextReturnsOldestQueued(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := jobs.NewJobRunRepo(db, log)
	dbc := testutil.Ctx()

	first, err := repo.Create(dbc, &types.JobRun{
		ID:      uuid.New(),
		JobType: "segment_promote",
		Status:  types.JobStatusQueued,
		Payload: datatypes.JSON(`{"deal_id":"a"}`),
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := repo.Create(dbc, &types.JobRun{
		ID:      uuid.New(),
		JobType: "segment_promote",
		Status:  types.JobStatusQueued,
		Payload: datatypes.JSON(`{"deal_id":"b"}`),
	}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	claimed, err := repo.ClaimNext(dbc, []string{"segment_promote"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil {
		t.Fatalf("claim returned nil with queued jobs present")
	}
	if claimed.ID != first.ID {
		t.Fatalf("claimed %s, want oldest job %s", claimed.ID, first.ID)
	}
	if claimed.Status != types.JobStatusRunning {
		t.Fatalf("claimed job status %q, want running", claimed.Status)
	}
	if claimed.LockedAt == nil {
		t.Fatalf("claimed job has no locked_at")
	}
	if claimed.Attempts != 1 {
		t.Fatalf("claimed job attempts = %d, want 1", claimed.Attempts)
	}
}

func TestClaimNextEmptyQueue(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := jobs.NewJobRunRepo(db, log)

	claimed, err := repo.ClaimNext(testutil.Ctx(), []string{"segment_promote"})
	if err != nil {
		t.Fatalf("claim on empty queue: %v", err)
	}
	if claimed != nil {
		t.Fatalf("claim on empty queue returned %v, want nil", claimed.ID)
	}
}

func TestMarkSucceededStoresResult(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := jobs.NewJobRunRepo(db, log)
	dbc := testutil.Ctx()

	job, err := repo.Create(dbc, &types.JobRun{
		ID:      uuid.New(),
		JobType: "segment_promote",
		Status:  types.JobStatusQueued,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, _ := json.Marshal(map[string]int{"promoted": 3})
	if err := repo.MarkSucceeded(dbc, job.ID, result); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	got, err := repo.GetByID(dbc, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != types.JobStatusSucceeded {
		t.Fatalf("status %q, want succeeded", got.Status)
	}
	if got.Progress != 100 {
		t.Fatalf("progress %d, want 100", got.Progress)
	}
	var decoded map[string]int
	if err := json.Unmarshal(got.Result, &decoded); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if decoded["promoted"] != 3 {
		t.Fatalf("result promoted=%d, want 3", decoded["promoted"])
	}
}

func TestPromotionRunRunKeyLookup(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := jobs.NewPromotionRunRepo(db, log)
	dbc := testutil.Ctx()

	dealID := uuid.New()
	run, err := repo.Create(dbc, &types.PromotionRun{
		ID:             uuid.New(),
		DealID:         dealID,
		RunKey:         "deal:" + dealID.String() + ":ruleset_v1",
		RulesetVersion: "ruleset_v1",
		RejectBelow:    0.35,
		ReviewAt:       0.55,
		AutoAcceptAt:   0.75,
		Promoted:       2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByRunKey(dbc, run.RunKey)
	if err != nil {
		t.Fatalf("get by run key: %v", err)
	}
	if got == nil || got.ID != run.ID {
		t.Fatalf("run key lookup returned %+v, want run %s", got, run.ID)
	}

	missing, err := repo.GetByRunKey(dbc, "deal:none:ruleset_v1")
	if err != nil {
		t.Fatalf("get missing run key: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing run key returned %+v, want nil", missing)
	}
}
