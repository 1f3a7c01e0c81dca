package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sjperalta/car-ledger-api/internal/middleware"
	"github.com/sjperalta/car-ledger-api/internal/services"
)

// respondError maps service errors to HTTP responses
func respondError(c *gin.Context, err error) {
	var (
		validationErr  *services.ValidationError
		schemaErr      *services.SchemaError
		integrityErr   *services.IntegrityError
		concurrencyErr *services.ConcurrencyError
		cascadeErr     *services.CascadeIntegrityError
		computationErr *services.ComputationError
	)

	switch {
	case errors.As(err, &validationErr):
		body := gin.H{"error": validationErr.Error(), "field": validationErr.Field}
		if validationErr.MemberID != 0 {
			body["member_id"] = validationErr.MemberID
		}
		if validationErr.Database != "" {
			body["database"] = validationErr.Database
		}
		if validationErr.Period != 0 {
			body["period"] = validationErr.Period.String()
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": schemaErr.Error(), "database": schemaErr.Database})
	case errors.As(err, &integrityErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     integrityErr.Error(),
			"integrity": integrityErr.Report,
			"hint":      "resubmit with acknowledge_integrity=true to proceed",
		})
	case errors.As(err, &concurrencyErr):
		c.JSON(http.StatusLocked, gin.H{"error": concurrencyErr.Error(), "file": concurrencyErr.File})
	case errors.As(err, &cascadeErr):
		c.JSON(http.StatusConflict, gin.H{"error": cascadeErr.Error(), "member_id": cascadeErr.MemberID, "period": cascadeErr.Period.String()})
	case errors.As(err, &computationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": computationErr.Error(), "member_id": computationErr.MemberID})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConversionInProgress):
		c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyConverted), errors.Is(err, services.ErrConversionNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidRate), errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoBenefitBase), errors.Is(err, services.ErrNoBenefitsToTransfer):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "request_id": middleware.RequestID(c)})
	}
}

// respondBindError reports a malformed or invalid request body
func respondBindError(c *gin.Context, err error) {
	if fields := validationMessages(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
