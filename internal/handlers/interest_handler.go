package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sjperalta/car-ledger-api/internal/services"
)

type InterestHandler struct {
	interestService *services.InterestService
}

func NewInterestHandler(interestService *services.InterestService) *InterestHandler {
	return &InterestHandler{interestService: interestService}
}

// InstallmentQuery asks for a plan by number of months or by monthly amount
type InstallmentQuery struct {
	Loan   string `form:"loan" validate:"required,numeric"`
	Months int    `form:"months" validate:"omitempty,min=1,max=600"`
	Amount string `form:"amount" validate:"required_without=Months,omitempty,numeric"`
}

// @Summary Interest preview
// @Description Interest accrued on the current loan up to a month. Nothing is written.
// @Tags Interest
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param month query int true "Month"
// @Param year query int true "Year"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /members/{id}/interest_preview [get]
func (h *InterestHandler) Preview(c *gin.Context) {
	id, ok := memberIDParam(c)
	if !ok {
		return
	}
	period, ok := periodQuery(c)
	if !ok {
		return
	}
	interest, err := h.interestService.ComputeInterestPreview(c.Request.Context(), id, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"member_id": id,
		"as_of":     period.String(),
		"rate":      h.interestService.Rate(),
		"interest":  interest,
	})
}

// @Summary Loan payoff preview
// @Description Proposed edit closing the loan in the last recorded month, with accrued interest
// @Tags Interest
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} services.PayoffPreview
// @Failure 422 {object} map[string]interface{}
// @Router /members/{id}/payoff_preview [get]
func (h *InterestHandler) PayoffPreview(c *gin.Context) {
	id, ok := memberIDParam(c)
	if !ok {
		return
	}
	preview, err := h.interestService.PayoffPreview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// @Summary Installment estimate
// @Description Monthly installment for a number of months, or months needed for a monthly installment
// @Tags Interest
// @Produce json
// @Security BearerAuth
// @Param loan query string true "Loan amount"
// @Param months query int false "Number of months"
// @Param amount query string false "Monthly installment"
// @Success 200 {object} ledger.InstallmentPlan
// @Router /installments/estimate [get]
func (h *InterestHandler) EstimateInstallments(c *gin.Context) {
	var q InstallmentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months must be a number"})
		return
	}
	if err := validate.Struct(q); err != nil {
		respondBindError(c, err)
		return
	}

	loan, _ := decimal.NewFromString(q.Loan)
	amount := decimal.Zero
	if q.Amount != "" {
		amount, _ = decimal.NewFromString(q.Amount)
	}

	plan, err := h.interestService.EstimateInstallments(loan, q.Months, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
