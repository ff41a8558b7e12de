package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/famcase/caseview/cmd/caseview/middleware"
	"github.com/famcase/caseview/cmd/caseview/service"
	"github.com/famcase/caseview/common/bootstrap"
	"github.com/famcase/caseview/common/merge"
)

// CaseHandler handles merged case view requests
type CaseHandler struct {
	caseService *service.CaseService
	components  *bootstrap.Components
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(caseService *service.CaseService, components *bootstrap.Components) *CaseHandler {
	return &CaseHandler{
		caseService: caseService,
		components:  components,
	}
}

type caseResponse struct {
	SubjectID string            `json:"subject_id"`
	HasData   bool              `json:"has_data"`
	Case      *merge.MergedView `json:"case,omitempty"`
}

// ListCases returns the merged view of every subject the requester has
// custody of
// GET /api/v1/cases
func (h *CaseHandler) ListCases(c echo.Context) error {
	requester := middleware.GetRequester(c)

	views, err := h.caseService.AssembleAll(c.Request().Context(), requester)
	if err != nil {
		h.components.Logger.Error("failed to assemble cases", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"cases": views,
	})
}

// GetCase returns the merged view for one subject, custody-gated
// GET /api/v1/cases/:subjectId
func (h *CaseHandler) GetCase(c echo.Context) error {
	requester := middleware.GetRequester(c)
	subjectID := c.Param("subjectId")

	view, err := h.caseService.AssembleSubject(c.Request().Context(), subjectID, requester)
	if err != nil {
		h.components.Logger.Error("failed to assemble case",
			"subject_id", subjectID,
			"error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "internal server error",
		})
	}

	// No custody and no data look identical from the outside
	return c.JSON(http.StatusOK, caseResponse{
		SubjectID: subjectID,
		HasData:   view != nil,
		Case:      view,
	})
}

// DebugCase returns the merged view plus the ordered redacted inputs
// for one subject. Support endpoint, no custody gate.
// GET /api/v1/cases/:subjectId/debug
func (h *CaseHandler) DebugCase(c echo.Context) error {
	requester := middleware.GetRequester(c)
	subjectID := c.Param("subjectId")

	result, err := h.caseService.AssembleDebug(c.Request().Context(), subjectID, requester)
	if err != nil {
		h.components.Logger.Error("failed to assemble debug case",
			"subject_id", subjectID,
			"error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, result)
}
