package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/services"
)

type LedgerHandler struct {
	ledgerService *services.LedgerService
}

func NewLedgerHandler(ledgerService *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// PeriodQuery selects a calendar month from the query string
type PeriodQuery struct {
	Month int `form:"month" validate:"required,min=1,max=12"`
	Year  int `form:"year" validate:"required,min=1"`
}

// LedgerEditRequest carries the new transaction amounts of one month
type LedgerEditRequest struct {
	Interest                   decimal.Decimal `json:"interest" swaggertype:"string"`
	LoanDisbursed              decimal.Decimal `json:"loan_disbursed" swaggertype:"string"`
	LoanRepaid                 decimal.Decimal `json:"loan_repaid" swaggertype:"string"`
	DepositContribution        decimal.Decimal `json:"deposit_contribution" swaggertype:"string"`
	DepositWithdrawal          decimal.Decimal `json:"deposit_withdrawal" swaggertype:"string"`
	UpdateStandardContribution bool            `json:"update_standard_contribution"`
}

func memberIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return 0, false
	}
	return id, true
}

func periodParams(c *gin.Context) (models.Period, bool) {
	year, yerr := strconv.Atoi(c.Param("year"))
	month, merr := strconv.Atoi(c.Param("month"))
	if yerr != nil || merr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year or month"})
		return 0, false
	}
	period, err := models.NewPeriod(year, month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return period, true
}

func periodQuery(c *gin.Context) (models.Period, bool) {
	var q PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month and year must be numbers"})
		return 0, false
	}
	if err := validate.Struct(q); err != nil {
		respondBindError(c, err)
		return 0, false
	}
	return models.MustPeriod(q.Year, q.Month), true
}

// @Summary Get member
// @Description Registry entry of a member, with the liquidation date when liquidated
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} models.Member
// @Failure 404 {object} map[string]string
// @Router /members/{id} [get]
func (h *LedgerHandler) GetMember(c *gin.Context) {
	id, ok := memberIDParam(c)
	if !ok {
		return
	}
	member, err := h.ledgerService.GetMember(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// @Summary Ledger history
// @Description Every recorded month of a member, most recent first
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {array} models.LedgerRecord
// @Router /members/{id}/history [get]
func (h *LedgerHandler) History(c *gin.Context) {
	id, ok := memberIDParam(c)
	if !ok {
		return
	}
	records, err := h.ledgerService.GetLedgerHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member_id": id, "records": records})
}

// @Summary Opening balances
// @Description Loan and deposit balances a month opens with
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param month query int true "Month"
// @Param year query int true "Year"
// @Success 200 {object} ledger.Balances
// @Router /members/{id}/opening_balances [get]
func (h *LedgerHandler) OpeningBalances(c *gin.Context) {
	id, ok := memberIDParam(c)
	if !ok {
		return
	}
	period, ok := periodQuery(c)
	if !ok {
		return
	}
	balances, err := h.ledgerService.GetOpeningBalances(c.Request.Context(), id, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

// @Summary Edit a ledger month
// @Description Replaces a month's transactions and recalculates every later month
// @Tags Ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param year path int true "Year"
// @Param month path int true "Month"
// @Param request body LedgerEditRequest true "Transactions"
// @Success 200 {object} services.EditResult
// @Failure 422 {object} map[string]interface{}
// @Failure 423 {object} map[string]string
// @Router /members/{id}/ledger/{year}/{month} [put]
func (h *LedgerHandler) SubmitEdit(c *gin.Context) {
	id, ok := memberIDParam(c)
	if !ok {
		return
	}
	period, ok := periodParams(c)
	if !ok {
		return
	}

	var req LedgerEditRequest
	if err := BindAndValidate(c, "edit", &req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.ledgerService.SubmitEdit(c.Request.Context(), id, period, services.EditRequest{
		Interest:                   req.Interest,
		LoanDisbursed:              req.LoanDisbursed,
		LoanRepaid:                 req.LoanRepaid,
		DepositContribution:        req.DepositContribution,
		DepositWithdrawal:          req.DepositWithdrawal,
		UpdateStandardContribution: req.UpdateStandardContribution,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Recalculate balances
// @Description Re-runs the balance recalculation for every month after the given one
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param year path int true "Year"
// @Param month path int true "Month"
// @Success 200 {object} map[string]interface{}
// @Router /members/{id}/ledger/{year}/{month}/recalculate [post]
func (h *LedgerHandler) Recalculate(c *gin.Context) {
	id, ok := memberIDParam(c)
	if !ok {
		return
	}
	period, ok := periodParams(c)
	if !ok {
		return
	}
	months, err := h.ledgerService.Recalculate(c.Request.Context(), id, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member_id": id, "from": period.String(), "recalculated_months": months})
}

// @Summary Inactive members
// @Description Members registered as inactive with their count of missing months
// @Tags Registry
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.InactiveMember
// @Router /registry/inactive [get]
func (h *LedgerHandler) ListInactive(c *gin.Context) {
	members, err := h.ledgerService.ListInactive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}
