package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kierolabs/dealdesk-backend/internal/http/response"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/services"
)

type ScoringHandler struct {
	scoring services.ScoringService
}

func NewScoringHandler(scoring services.ScoringService) *ScoringHandler {
	return &ScoringHandler{scoring: scoring}
}

// GET /api/deals/:id/score
func (h *ScoringHandler) GetBreakdown(c *gin.Context) {
	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deal_id", err)
		return
	}
	breakdown, err := h.scoring.Breakdown(dbctx.Context{Ctx: c.Request.Context()}, dealID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, breakdown)
}

// GET /api/deals/:id/gate
func (h *ScoringHandler) GetGate(c *gin.Context) {
	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deal_id", err)
		return
	}
	gate, err := h.scoring.Gate(dbctx.Context{Ctx: c.Request.Context()}, dealID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gate)
}
