package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type JobRunRepo interface {
	Create(dbc dbctx.Context, job *types.JobRun) (*types.JobRun, error)
	GetByID(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)

	// ClaimNext atomically locks and returns the oldest queued job of the
	// given types, or nil when the queue is empty.
	ClaimNext(dbc dbctx.Context, jobTypes []string) (*types.JobRun, error)

	UpdateProgress(dbc dbctx.Context, jobID uuid.UUID, stage string, progress int) error
	MarkSucceeded(dbc dbctx.Context, jobID uuid.UUID, result []byte) error
	MarkFailed(dbc dbctx.Context, jobID uuid.UUID, stage string, jobErr error) error
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{db: db, log: baseLog.With("repo", "JobRunRepo")}
}

func (r *jobRunRepo) Create(dbc dbctx.Context, job *types.JobRun) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRunRepo) GetByID(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.JobRun
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", jobID).
		First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRunRepo) ClaimNext(dbc dbctx.Context, jobTypes []string) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(jobTypes) == 0 {
		return nil, nil
	}

	var claimed *types.JobRun
	err := transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var job types.JobRun
		query := tx.
			Where("job_type IN ?", jobTypes).
			Where("status = ?", types.JobStatusQueued).
			Order("created_at, id")
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := query.First(&job).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		now := time.Now().UTC()
		res := tx.Model(&types.JobRun{}).
			Where("id = ? AND status = ?", job.ID, types.JobStatusQueued).
			Updates(map[string]interface{}{
				"status":    types.JobStatusRunning,
				"locked_at": now,
				"attempts":  gorm.Expr("attempts + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to a concurrent worker.
			return nil
		}
		job.Status = types.JobStatusRunning
		job.LockedAt = &now
		job.Attempts++
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *jobRunRepo) UpdateProgress(dbc dbctx.Context, jobID uuid.UUID, stage string, progress int) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{"stage": stage, "progress": progress}).Error
}

func (r *jobRunRepo) MarkSucceeded(dbc dbctx.Context, jobID uuid.UUID, result []byte) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"status":   types.JobStatusSucceeded,
		"progress": 100,
	}
	if len(result) > 0 {
		updates["result"] = result
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("id = ?", jobID).
		Updates(updates).Error
}

func (r *jobRunRepo) MarkFailed(dbc dbctx.Context, jobID uuid.UUID, stage string, jobErr error) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status": types.JobStatusFailed,
			"stage":  stage,
			"error":  msg,
		}).Error
}
