package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sjperalta/car-ledger-api/internal/middleware"
	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/services"
	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

type ConversionHandler struct {
	conversionService *services.ConversionService
	exportService     *services.ExportService
}

func NewConversionHandler(conversionService *services.ConversionService, exportService *services.ExportService) *ConversionHandler {
	return &ConversionHandler{conversionService: conversionService, exportService: exportService}
}

// ConversionRunRequest starts the one-time conversion
type ConversionRunRequest struct {
	Rate                 string `json:"rate" validate:"required,numeric"`
	AcknowledgeIntegrity bool   `json:"acknowledge_integrity"`
}

// RateQuery selects the exchange rate for a preview
type RateQuery struct {
	Rate string `form:"rate" validate:"required,numeric"`
}

// ReportQuery selects the export format
type ReportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv xlsx"`
}

// @Summary Conversion status
// @Description Whether the RON to EUR conversion was applied, which EUR clones exist and whether a run is active
// @Tags Conversion
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SystemStatus
// @Router /conversion/status [get]
func (h *ConversionHandler) Status(c *gin.Context) {
	status, err := h.conversionService.Status()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// @Summary Conversion preview
// @Description Validates the five databases and estimates the EUR totals and rounding difference. Nothing is written.
// @Tags Conversion
// @Produce json
// @Security BearerAuth
// @Param rate query string true "RON per EUR"
// @Success 200 {object} models.ConversionPreview
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Router /conversion/preview [get]
func (h *ConversionHandler) Preview(c *gin.Context) {
	var q RateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	if err := validate.Struct(q); err != nil {
		respondBindError(c, err)
		return
	}
	rate, _ := decimal.NewFromString(q.Rate)

	preview, err := h.conversionService.Preview(c.Request.Context(), rate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// @Summary Start conversion
// @Description Queues the one-time RON to EUR conversion. Progress is available from the run resource.
// @Tags Conversion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ConversionRunRequest true "Rate"
// @Success 202 {object} models.ConversionRun
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 423 {object} map[string]string
// @Router /conversion/runs [post]
func (h *ConversionHandler) Start(c *gin.Context) {
	var req ConversionRunRequest
	if err := BindAndValidate(c, "conversion", &req); err != nil {
		respondBindError(c, err)
		return
	}
	rate, _ := decimal.NewFromString(req.Rate)
	actor := middleware.GetOperator(c)

	id, err := h.conversionService.StartConversion(services.ConversionRequest{
		Rate:                 rate,
		Actor:                actor,
		AcknowledgeIntegrity: req.AcknowledgeIntegrity,
	}, services.ConversionCallbacks{
		OnComplete: func(report *models.ConversionReport) {
			logger.Info("Conversion run completed", "run_id", report.RunID, "actor", report.Actor)
		},
		OnError: func(err error) {
			logger.Warn("Conversion run ended without converting", "actor", actor, "error", err)
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	run, err := h.conversionService.GetRun(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/%s", c.Request.URL.Path, id))
	c.JSON(http.StatusAccepted, run)
}

// @Summary Get conversion run
// @Description Stage, progress and, once completed, the report of a run
// @Tags Conversion
// @Produce json
// @Security BearerAuth
// @Param run_id path string true "Run ID"
// @Success 200 {object} models.ConversionRun
// @Failure 404 {object} map[string]string
// @Router /conversion/runs/{run_id} [get]
func (h *ConversionHandler) GetRun(c *gin.Context) {
	run, err := h.conversionService.GetRun(c.Param("run_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// @Summary Cancel conversion run
// @Description Requests cancellation; the run stops at the next stage or table boundary
// @Tags Conversion
// @Produce json
// @Security BearerAuth
// @Param run_id path string true "Run ID"
// @Success 202 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /conversion/runs/{run_id} [delete]
func (h *ConversionHandler) CancelRun(c *gin.Context) {
	id := c.Param("run_id")
	if err := h.conversionService.CancelRun(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "cancellation requested", "run_id": id})
}

// @Summary Download conversion report
// @Description Per-table sums and rounding differences of a completed run
// @Tags Conversion
// @Produce octet-stream
// @Security BearerAuth
// @Param run_id path string true "Run ID"
// @Param format query string false "csv or xlsx" Enums(csv, xlsx)
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /conversion/runs/{run_id}/report [get]
func (h *ConversionHandler) Report(c *gin.Context) {
	var q ReportQuery
	_ = c.ShouldBindQuery(&q)
	if err := validate.Struct(q); err != nil {
		respondBindError(c, err)
		return
	}

	run, err := h.conversionService.GetRun(c.Param("run_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if run.Report == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "run has no report", "stage": run.Stage})
		return
	}

	data, filename, err := h.exportService.Export(run.Report, q.Format)
	if err != nil {
		respondError(c, err)
		return
	}

	contentType := "text/csv"
	if q.Format == services.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}
