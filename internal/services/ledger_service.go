package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sjperalta/car-ledger-api/internal/ledger"
	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/repository"
	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

// ConversionGuard tells the ledger whether the one-time conversion currently
// owns the files. HoldForEdit keeps a write from overlapping the clone stage.
type ConversionGuard interface {
	InProgress() bool
	HoldForEdit() (release func(), err error)
}

// holdForEdit is a no-op without a guard
func holdForEdit(guard ConversionGuard) (func(), error) {
	if guard == nil {
		return func() {}, nil
	}
	return guard.HoldForEdit()
}

// LedgerService reads member ledgers and applies retroactive edits
type LedgerService struct {
	ledgerRepo     repository.LedgerRepository
	memberRepo     repository.MemberRepository
	liquidatedRepo repository.LiquidatedRepository
	inactiveRepo   repository.InactiveRepository
	cache          *HistoryCache
	guard          ConversionGuard
	log            *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	ledgerRepo repository.LedgerRepository,
	memberRepo repository.MemberRepository,
	liquidatedRepo repository.LiquidatedRepository,
	inactiveRepo repository.InactiveRepository,
	cache *HistoryCache,
	guard ConversionGuard,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:     ledgerRepo,
		memberRepo:     memberRepo,
		liquidatedRepo: liquidatedRepo,
		inactiveRepo:   inactiveRepo,
		cache:          cache,
		guard:          guard,
		log:            logger.With("ledger"),
	}
}

// EditRequest carries the new transaction fields of one month
type EditRequest struct {
	Interest                   decimal.Decimal
	LoanDisbursed              decimal.Decimal
	LoanRepaid                 decimal.Decimal
	DepositContribution        decimal.Decimal
	DepositWithdrawal          decimal.Decimal
	UpdateStandardContribution bool
}

func (r EditRequest) movements() ledger.Movements {
	return ledger.Movements{
		LoanDisbursed:       r.LoanDisbursed,
		LoanRepaid:          r.LoanRepaid,
		DepositContribution: r.DepositContribution,
		DepositWithdrawal:   r.DepositWithdrawal,
	}
}

// EditResult describes a committed edit
type EditResult struct {
	Record                      models.LedgerRecord `json:"record"`
	RecalculatedMonths          int                 `json:"recalculated_months"`
	StandardContributionUpdated bool                `json:"standard_contribution_updated"`
	StandardContributionError   string              `json:"standard_contribution_error,omitempty"`
}

// GetMember returns the registry entry, flagged when liquidated
func (s *LedgerService) GetMember(ctx context.Context, memberID int) (*models.Member, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("member %d: %w", memberID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}

	liquidated, err := s.liquidatedRepo.FindByMemberID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to check liquidation: %w", err)
	}
	if liquidated != nil {
		member.LiquidatedOn = &liquidated.LiquidatedOn
	}
	return member, nil
}

// GetLedgerHistory returns every recorded month, most recent first
func (s *LedgerService) GetLedgerHistory(ctx context.Context, memberID int) ([]models.LedgerRecord, error) {
	if records, ok := s.cache.Get(memberID); ok {
		return records, nil
	}

	gen := s.cache.Generation(memberID)
	records, err := s.ledgerRepo.FindByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger history: %w", err)
	}
	s.cache.AddIfCurrent(memberID, gen, records)
	return records, nil
}

// GetOpeningBalances returns the previous month's closing balances, zero when unrecorded
func (s *LedgerService) GetOpeningBalances(ctx context.Context, memberID int, period models.Period) (ledger.Balances, error) {
	return s.openingBalances(ctx, s.ledgerRepo, memberID, period)
}

func (s *LedgerService) openingBalances(ctx context.Context, repo repository.LedgerRepository, memberID int, period models.Period) (ledger.Balances, error) {
	zero := ledger.Balances{Loan: decimal.Zero, Deposit: decimal.Zero}
	prev := period.Prev()
	if prev.Year() <= 0 {
		return zero, nil
	}

	balances, err := repo.FindBalances(ctx, memberID, prev)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("Previous month not recorded, opening balances are zero",
				"member", memberID, "period", prev.String())
			return zero, nil
		}
		return zero, fmt.Errorf("failed to read opening balances: %w", err)
	}
	return *balances, nil
}

// SubmitEdit validates and stores a month's transactions, then recalculates
// every later month in the same transaction.
func (s *LedgerService) SubmitEdit(ctx context.Context, memberID int, period models.Period, req EditRequest) (*EditResult, error) {
	release, err := holdForEdit(s.guard)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.submitEdit(ctx, memberID, period, req)
}

// submitEdit is SubmitEdit for callers already holding the guard
func (s *LedgerService) submitEdit(ctx context.Context, memberID int, period models.Period, req EditRequest) (*EditResult, error) {
	if req.Interest.IsNegative() {
		return nil, &ValidationError{MemberID: memberID, Field: "interest", Err: ledger.ErrNegativeAmount}
	}

	member, err := s.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	result := &EditResult{}
	err = s.ledgerRepo.Transaction(ctx, func(tx repository.LedgerRepository) error {
		existing, err := tx.FindByPeriod(ctx, memberID, period)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("ledger month %s for member %d: %w", period, memberID, ErrNotFound)
			}
			return fmt.Errorf("failed to load ledger month: %w", err)
		}

		opening, err := s.openingBalances(ctx, tx, memberID, period)
		if err != nil {
			return err
		}

		closing, err := ledger.ComputeClosing(opening, req.movements())
		if err != nil {
			return toValidationError(memberID, err)
		}

		record := *existing
		record.Interest = ledger.Round(req.Interest)
		record.LoanDisbursed = ledger.Round(req.LoanDisbursed)
		record.LoanRepaid = ledger.Round(req.LoanRepaid)
		record.DepositContribution = ledger.Round(req.DepositContribution)
		record.DepositWithdrawal = ledger.Round(req.DepositWithdrawal)
		record.LoanBalance = closing.Loan
		record.DepositBalance = closing.Deposit

		if err := tx.UpdateTransaction(ctx, &record); err != nil {
			return fmt.Errorf("failed to update ledger month: %w", err)
		}

		months, err := s.cascade(ctx, tx, memberID, period)
		if err != nil {
			return err
		}

		result.Record = record
		result.RecalculatedMonths = months
		return nil
	})
	if err != nil {
		s.log.Warn("Ledger edit rejected", "member", memberID, "period", period.String(), "error", err)
		return nil, err
	}

	s.cache.Invalidate(memberID)
	s.log.Info("Ledger month updated",
		"member", memberID,
		"period", period.String(),
		"recalculated_months", result.RecalculatedMonths,
	)

	if req.UpdateStandardContribution && !member.StandardContribution.Equal(result.Record.DepositContribution) {
		if err := s.memberRepo.UpdateStandardContribution(ctx, memberID, result.Record.DepositContribution); err != nil {
			s.log.Warn("Standard contribution not updated", "member", memberID, "error", err)
			result.StandardContributionError = err.Error()
		} else {
			result.StandardContributionUpdated = true
		}
	}

	return result, nil
}

// Recalculate re-runs the cascade after period on its own, for repairing
// balances after an external change to a month's transactions.
func (s *LedgerService) Recalculate(ctx context.Context, memberID int, period models.Period) (int, error) {
	release, err := holdForEdit(s.guard)
	if err != nil {
		return 0, err
	}
	defer release()

	var months int
	err = s.ledgerRepo.Transaction(ctx, func(tx repository.LedgerRepository) error {
		n, err := s.cascade(ctx, tx, memberID, period)
		months = n
		return err
	})
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(memberID)
	return months, nil
}

// cascade recomputes the balances of every month after edited, in order,
// from the already stored transactions. It must run inside a transaction.
func (s *LedgerService) cascade(ctx context.Context, repo repository.LedgerRepository, memberID int, edited models.Period) (int, error) {
	last, ok, err := repo.LastPeriod(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to find last ledger month: %w", err)
	}
	start := edited.Next()
	if !ok || start > last {
		return 0, nil
	}

	months := 0
	for m := start; m <= last; m = m.Next() {
		opening, err := s.openingBalances(ctx, repo, memberID, m)
		if err != nil {
			return months, err
		}

		record, err := repo.FindByPeriod(ctx, memberID, m)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return months, &CascadeIntegrityError{MemberID: memberID, Period: m}
			}
			return months, fmt.Errorf("failed to read ledger month %s: %w", m, err)
		}

		// stored movements must still fit the new openings
		closing, err := ledger.ComputeClosing(opening, ledger.Movements{
			LoanDisbursed:       record.LoanDisbursed,
			LoanRepaid:          record.LoanRepaid,
			DepositContribution: record.DepositContribution,
			DepositWithdrawal:   record.DepositWithdrawal,
		})
		if err != nil {
			vErr := toValidationError(memberID, err)
			vErr.Period = m
			return months, vErr
		}

		if err := repo.UpdateBalances(ctx, memberID, m, closing); err != nil {
			return months, fmt.Errorf("failed to update balances for %s: %w", m, err)
		}
		months++
	}

	s.log.Debug("Cascade finished", "member", memberID, "from", start.String(), "to", last.String(), "months", months)
	return months, nil
}

// ListInactive returns the inactive-members registry
func (s *LedgerService) ListInactive(ctx context.Context) ([]models.InactiveMember, error) {
	members, err := s.inactiveRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive members: %w", err)
	}
	return members, nil
}

func toValidationError(memberID int, err error) *ValidationError {
	var fe *ledger.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{MemberID: memberID, Field: fe.Field, Err: fe.Err}
	}
	return &ValidationError{MemberID: memberID, Err: err}
}
