package services

import (
	"github.com/sjperalta/car-ledger-api/internal/config"
	"github.com/sjperalta/car-ledger-api/internal/jobs"
	"github.com/sjperalta/car-ledger-api/internal/repository"
	"github.com/sjperalta/car-ledger-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Auth       *AuthService
	Ledger     *LedgerService
	Interest   *InterestService
	Conversion *ConversionService
	Benefit    *BenefitService
	Export     *ExportService
	Job        *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, storage *storage.LocalStorage, cfg *config.Config) (*Services, error) {
	cache, err := NewHistoryCache(cfg.HistoryCacheSize)
	if err != nil {
		return nil, err
	}

	conversionSvc := NewConversionService(cfg, storage, worker)
	ledgerSvc := NewLedgerService(repos.Ledger, repos.Member, repos.Liquidated, repos.Inactive, cache, conversionSvc)

	return &Services{
		Auth:       NewAuthService(cfg),
		Ledger:     ledgerSvc,
		Interest:   NewInterestService(repos.Ledger, cfg.LoanInterestRate),
		Conversion: conversionSvc,
		Benefit:    NewBenefitService(repos.Ledger, repos.Member, repos.Liquidated, repos.Active, ledgerSvc, conversionSvc, worker),
		Export:     NewExportService(storage),
		Job:        NewJobService(worker, conversionSvc),
	}, nil
}
