// Package worker polls job_run for queued work and dispatches claimed
// jobs to registered pipelines.
package worker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	"github.com/kierolabs/dealdesk-backend/internal/jobs/runtime"
	"github.com/kierolabs/dealdesk-backend/internal/observability"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	interval time.Duration
}

func New(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		interval: time.Second,
	}
}

// SetInterval overrides the poll interval; values <= 0 are ignored.
func (w *Worker) SetInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		jobTypes := w.registry.Types()
		sort.Strings(jobTypes)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				job, err := w.repo.ClaimNext(dbctx.Context{Ctx: ctx}, jobTypes)
				if err != nil {
					w.log.Warn("claim failed", "error", err)
					continue
				}
				if job == nil {
					continue
				}
				jc := runtime.NewContext(ctx, w.db, job, w.repo)
				pipeline, ok := w.registry.Get(job.JobType)
				if !ok {
					jc.Fail("dispatch", fmt.Errorf("no pipeline registered for job_type=%s", job.JobType))
					continue
				}
				w.run(jc, pipeline)
			}
		}
	}()
}

// run isolates a single job execution so a pipeline panic fails the job
// instead of killing the worker.
func (w *Worker) run(jc *runtime.Context, pipeline runtime.Pipeline) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("pipeline panic", "job_id", jc.Job.ID, "job_type", jc.Job.JobType, "panic", r)
			jc.Fail("panic", fmt.Errorf("panic: %v", r))
		}
		observability.Current().ObserveJobRun(jc.Job.JobType, jc.Job.Status, time.Since(start))
	}()
	if err := pipeline.Run(jc); err != nil {
		w.log.Error("pipeline error", "job_id", jc.Job.ID, "job_type", jc.Job.JobType, "error", err)
		jc.Fail("run", err)
	}
}
