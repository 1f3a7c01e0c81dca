package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sjperalta/car-ledger-api/internal/services"
)

type BenefitHandler struct {
	benefitService *services.BenefitService
}

func NewBenefitHandler(benefitService *services.BenefitService) *BenefitHandler {
	return &BenefitHandler{benefitService: benefitService}
}

// BenefitRequest distributes a year's profit
type BenefitRequest struct {
	Year   int    `json:"year" validate:"required,min=1,max=9999"`
	Profit string `json:"profit" validate:"required,numeric"`
	DryRun bool   `json:"dry_run"`
}

// @Summary Distribute annual benefits
// @Description Splits the year's profit over members' positive monthly deposit balances and rebuilds the active members summary. With dry_run the computed distribution is returned and nothing is written.
// @Tags Benefits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BenefitRequest true "Year and profit"
// @Success 200 {object} services.BenefitDistribution
// @Success 202 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /benefits/distribute [post]
func (h *BenefitHandler) Distribute(c *gin.Context) {
	var req BenefitRequest
	if err := BindAndValidate(c, "benefits", &req); err != nil {
		respondBindError(c, err)
		return
	}
	profit, _ := decimal.NewFromString(req.Profit)

	if req.DryRun {
		dist, err := h.benefitService.Calculate(c.Request.Context(), req.Year, profit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dist)
		return
	}

	if err := h.benefitService.Queue(req.Year, profit); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "benefit distribution queued", "year": req.Year})
}

// TransferRequest moves a year's distributed benefits into the next January
type TransferRequest struct {
	Year int `json:"year" validate:"required,min=1,max=9998"`
}

// @Summary Transfer benefits to January
// @Description Adds each member's distributed benefit to the January contribution of the following year and recalculates the later months. Members without a January record are listed and left untouched.
// @Tags Benefits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Distribution year"
// @Success 200 {object} services.BenefitTransfer
// @Failure 422 {object} map[string]interface{}
// @Failure 423 {object} map[string]string
// @Router /benefits/transfer [post]
func (h *BenefitHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := BindAndValidate(c, "transfer", &req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.benefitService.Transfer(c.Request.Context(), req.Year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Last benefit distribution
// @Description Outcome of the most recent queued distribution
// @Tags Benefits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.BenefitDistribution
// @Failure 404 {object} map[string]string
// @Router /benefits/last [get]
func (h *BenefitHandler) Last(c *gin.Context) {
	dist, ok := h.benefitService.Last()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no distribution has run yet"})
		return
	}
	c.JSON(http.StatusOK, dist)
}
