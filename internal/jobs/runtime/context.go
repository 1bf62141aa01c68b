// Package runtime is the execution contract between the job worker and
// pipeline code. A Context wraps one claimed job_run row plus the only
// sanctioned ways to report progress or terminate the run; pipelines
// never touch job_run directly.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
)

type Context struct {
	Ctx  context.Context
	DB   *gorm.DB
	Job  *types.JobRun
	Repo repos.JobRunRepo

	payload map[string]any
}

// NewContext eagerly decodes the job payload so pipelines can read inputs
// via Payload()/PayloadUUID(). A malformed payload decodes to an empty
// map; pipelines validate their required fields anyway.
func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo) *Context {
	c := &Context{Ctx: ctx, DB: db, Job: job, Repo: repo}
	c.decodePayload()
	return c
}

func (c *Context) decodePayload() {
	c.payload = map[string]any{}
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		return
	}
	c.payload = m
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Context) PayloadFloat(key string) (float64, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func (c *Context) PayloadBool(key string) bool {
	v, ok := c.Payload()[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (c *Context) Progress(stage string, pct int) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.Repo.UpdateProgress(dbctx.Context{Ctx: ctx}, c.Job.ID, stage, pct); err != nil {
		return
	}
	c.Job.Stage = stage
	c.Job.Progress = pct
}

func (c *Context) Fail(stage string, err error) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	_ = c.Repo.MarkFailed(dbctx.Context{Ctx: ctx}, c.Job.ID, stage, err)
	c.Job.Status = types.JobStatusFailed
	c.Job.Stage = stage
	if err != nil {
		c.Job.Error = err.Error()
	}
}

func (c *Context) Succeed(result any) {
	if c == nil || c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	var raw []byte
	if result != nil {
		raw, _ = json.Marshal(result)
	}
	_ = c.Repo.MarkSucceeded(dbctx.Context{Ctx: ctx}, c.Job.ID, raw)
	c.Job.Status = types.JobStatusSucceeded
	c.Job.Progress = 100
	if raw != nil {
		c.Job.Result = raw
	}
}
