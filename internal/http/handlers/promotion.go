package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kierolabs/dealdesk-backend/internal/http/response"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/services"
)

type PromotionHandler struct {
	promotions services.PromotionService
	runNow     bool
}

// NewPromotionHandler wires the rescore endpoints. runNow switches the
// promote endpoint to synchronous execution (development only).
func NewPromotionHandler(promotions services.PromotionService, runNow bool) *PromotionHandler {
	return &PromotionHandler{promotions: promotions, runNow: runNow}
}

type promoteRequest struct {
	RunKey       string   `json:"run_key"`
	RejectBelow  *float64 `json:"reject_below"`
	ReviewAt     *float64 `json:"review_at"`
	AutoAcceptAt *float64 `json:"auto_accept_at"`
	Force        bool     `json:"force"`
	DryRun       bool     `json:"dry_run"`
}

// POST /api/deals/:id/segments/promote
func (h *PromotionHandler) Promote(c *gin.Context) {
	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deal_id", err)
		return
	}
	var body promoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
			return
		}
	}

	req := services.PromotionRequest{
		DealID:       dealID,
		RunKey:       body.RunKey,
		RejectBelow:  body.RejectBelow,
		ReviewAt:     body.ReviewAt,
		AutoAcceptAt: body.AutoAcceptAt,
		Force:        body.Force,
		DryRun:       body.DryRun,
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if h.runNow {
		job, err := h.promotions.RunNow(dbc, req)
		if err != nil {
			response.RespondFromError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"job": job})
		return
	}

	job, err := h.promotions.Enqueue(dbc, req)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"job": job})
}

// GET /api/deals/:id/promotions
func (h *PromotionHandler) ListRuns(c *gin.Context) {
	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deal_id", err)
		return
	}
	runs, err := h.promotions.History(dbctx.Context{Ctx: c.Request.Context()}, dealID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}
