package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kierolabs/dealdesk-backend/internal/data/repos"
	"github.com/kierolabs/dealdesk-backend/internal/http/response"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
)

type JobHandler struct {
	jobs repos.JobRunRepo
}

func NewJobHandler(jobs repos.JobRunRepo) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.GetByID(dbctx.Context{Ctx: c.Request.Context()}, jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			response.RespondError(c, http.StatusNotFound, "job_not_found", err)
			return
		}
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
