package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/jobs/pipeline/segment_promote"
	jobrt "github.com/kierolabs/dealdesk-backend/internal/jobs/runtime"
	"github.com/kierolabs/dealdesk-backend/internal/platform/apierr"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

// PromotionRequest carries the caller's knobs for a rescore run. Any
// threshold left nil falls back to the deployment default inside the
// job; thresholds that are present must already be ordered.
type PromotionRequest struct {
	DealID       uuid.UUID
	RunKey       string
	RejectBelow  *float64
	ReviewAt     *float64
	AutoAcceptAt *float64
	Force        bool
	DryRun       bool
}

type PromotionService interface {
	Enqueue(dbc dbctx.Context, req PromotionRequest) (*types.JobRun, error)

	// RunNow executes the pipeline synchronously on the caller's
	// goroutine. Development convenience; production traffic enqueues.
	RunNow(dbc dbctx.Context, req PromotionRequest) (*types.JobRun, error)

	History(dbc dbctx.Context, dealID uuid.UUID) ([]*types.PromotionRun, error)
}

type promotionService struct {
	db       *gorm.DB
	log      *logger.Logger
	deals    repos.DealRepo
	jobs     repos.JobRunRepo
	runs     repos.PromotionRunRepo
	pipeline *segment_promote.Pipeline
}

func NewPromotionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	deals repos.DealRepo,
	jobs repos.JobRunRepo,
	runs repos.PromotionRunRepo,
	pipeline *segment_promote.Pipeline,
) PromotionService {
	return &promotionService{
		db:       db,
		log:      baseLog.With("service", "PromotionService"),
		deals:    deals,
		jobs:     jobs,
		runs:     runs,
		pipeline: pipeline,
	}
}

func (s *promotionService) Enqueue(dbc dbctx.Context, req PromotionRequest) (*types.JobRun, error) {
	job, err := s.createJob(dbc, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("promotion enqueued", "deal_id", req.DealID, "job_id", job.ID)
	return job, nil
}

func (s *promotionService) RunNow(dbc dbctx.Context, req PromotionRequest) (*types.JobRun, error) {
	job, err := s.createJob(dbc, req)
	if err != nil {
		return nil, err
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	jc := jobrt.NewContext(ctx, s.db, job, s.jobs)
	if err := s.pipeline.Run(jc); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *promotionService) History(dbc dbctx.Context, dealID uuid.UUID) ([]*types.PromotionRun, error) {
	if _, err := s.deals.GetByID(dbc, dealID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apierr.NotFound("deal_not_found", err)
		}
		return nil, err
	}
	return s.runs.GetByDealID(dbc, dealID)
}

// createJob validates the request and records a queued job_run row. The
// worker (or RunNow) takes it from there.
func (s *promotionService) createJob(dbc dbctx.Context, req PromotionRequest) (*types.JobRun, error) {
	if req.DealID == uuid.Nil {
		return nil, apierr.BadRequest("missing_deal_id", fmt.Errorf("deal_id is required"))
	}
	if _, err := s.deals.GetByID(dbc, req.DealID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apierr.NotFound("deal_not_found", err)
		}
		return nil, err
	}

	// Explicit thresholds must arrive ordered; misordered overrides fail
	// the whole request rather than being silently repaired.
	if err := validateThresholds(req, s.log); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"deal_id": req.DealID.String(),
	}
	if req.RunKey != "" {
		payload["run_key"] = req.RunKey
	}
	if req.RejectBelow != nil {
		payload["reject_below"] = *req.RejectBelow
	}
	if req.ReviewAt != nil {
		payload["review_at"] = *req.ReviewAt
	}
	if req.AutoAcceptAt != nil {
		payload["auto_accept_at"] = *req.AutoAcceptAt
	}
	if req.Force {
		payload["force"] = true
	}
	if req.DryRun {
		payload["dry_run"] = true
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return s.jobs.Create(dbc, &types.JobRun{
		ID:      uuid.New(),
		JobType: s.pipeline.Type(),
		Status:  types.JobStatusQueued,
		Payload: raw,
	})
}

// validateThresholds merges the request's overrides over the defaults
// and rejects the request when the merged bands are misordered.
func validateThresholds(req PromotionRequest, log *logger.Logger) error {
	if req.RejectBelow == nil && req.ReviewAt == nil && req.AutoAcceptAt == nil {
		return nil
	}
	t := segment_promote.DefaultThresholds(log)
	if req.RejectBelow != nil {
		t.RejectBelow = *req.RejectBelow
	}
	if req.ReviewAt != nil {
		t.ReviewAt = *req.ReviewAt
	}
	if req.AutoAcceptAt != nil {
		t.AutoAcceptAt = *req.AutoAcceptAt
	}
	if !t.Valid() {
		return apierr.BadRequest("invalid_thresholds",
			fmt.Errorf("thresholds must satisfy reject_below <= review_at <= auto_accept_at, got %.2f/%.2f/%.2f",
				t.RejectBelow, t.ReviewAt, t.AutoAcceptAt))
	}
	for _, v := range []float64{t.RejectBelow, t.ReviewAt, t.AutoAcceptAt} {
		if v < 0 || v > 1 {
			return apierr.BadRequest("invalid_thresholds",
				fmt.Errorf("thresholds must be within [0,1], got %.2f", v))
		}
	}
	return nil
}
