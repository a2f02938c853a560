package importer

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the import engine over HTTP.
type Handler struct {
	runner *Runner
}

func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/import", h.RunImport)
}

type importRequest struct {
	Rows []*Row `json:"rows"`
}

type rowResultResponse struct {
	PatientIdentifier string `json:"patient_identifier"`
	Success           bool   `json:"success"`
	Message           string `json:"message,omitempty"`
}

type importResponse struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Results   []rowResultResponse `json:"results"`
}

// RunImport processes a batch of rows and returns the per-row report. The
// response is always 200 with per-row outcomes; a bad row is data for the
// operator, not an HTTP error.
func (h *Handler) RunImport(c echo.Context) error {
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if len(req.Rows) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no rows to import")
	}

	report := h.runner.Run(c.Request().Context(), req.Rows)

	resp := importResponse{
		Total:     report.Total,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Results:   make([]rowResultResponse, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		resp.Results = append(resp.Results, rowResultResponse{
			PatientIdentifier: res.Row.PatientIdentifier,
			Success:           res.Succeeded(),
			Message:           res.Message(),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
