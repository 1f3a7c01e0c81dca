package handlers

import (
	"github.com/sjperalta/car-ledger-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health     *HealthHandler
	Auth       *AuthHandler
	Ledger     *LedgerHandler
	Interest   *InterestHandler
	Conversion *ConversionHandler
	Benefit    *BenefitHandler
	Job        *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(svcs.Conversion),
		Auth:       NewAuthHandler(svcs.Auth),
		Ledger:     NewLedgerHandler(svcs.Ledger),
		Interest:   NewInterestHandler(svcs.Interest),
		Conversion: NewConversionHandler(svcs.Conversion, svcs.Export),
		Benefit:    NewBenefitHandler(svcs.Benefit),
		Job:        NewJobHandler(svcs.Job),
	}
}
