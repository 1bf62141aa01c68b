package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kierolabs/dealdesk-backend/internal/http/response"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
	"github.com/kierolabs/dealdesk-backend/internal/services"
)

type LineageHandler struct {
	lineage     services.LineageService
	diagnostics bool
}

// NewLineageHandler wires the graph endpoint. diagnostics gates the
// debug/raw query toggles; on production deployments they are ignored.
func NewLineageHandler(lineage services.LineageService, diagnostics bool) *LineageHandler {
	return &LineageHandler{lineage: lineage, diagnostics: diagnostics}
}

// GET /api/deals/:id/lineage
func (h *LineageHandler) GetLineage(c *gin.Context) {
	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deal_id", err)
		return
	}

	opts := services.GraphOptions{
		DisableHints: boolQuery(c, "no_hints"),
	}
	if h.diagnostics {
		opts.Debug = boolQuery(c, "debug")
		opts.RawView = boolQuery(c, "raw")
	}

	payload, err := h.lineage.BuildGraph(dbctx.Context{Ctx: c.Request.Context()}, dealID, opts)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, payload)
}

func boolQuery(c *gin.Context, key string) bool {
	switch c.Query(key) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
