package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sjperalta/car-ledger-api/internal/ledger"
	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/repository"
)

// InterestService computes advisory interest figures. It never writes.
type InterestService struct {
	ledgerRepo repository.LedgerRepository
	rate       decimal.Decimal
}

// NewInterestService creates an interest service applying rate per month of balance
func NewInterestService(ledgerRepo repository.LedgerRepository, rate decimal.Decimal) *InterestService {
	return &InterestService{ledgerRepo: ledgerRepo, rate: rate}
}

// Rate returns the configured monthly interest rate as a fraction
func (s *InterestService) Rate() decimal.Decimal {
	return s.rate
}

// ComputeInterestPreview returns the interest accrued on the current loan up to asOf
func (s *InterestService) ComputeInterestPreview(ctx context.Context, memberID int, asOf models.Period) (decimal.Decimal, error) {
	history, err := s.ledgerRepo.FindByMember(ctx, memberID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load ledger history: %w", err)
	}

	interest, err := ledger.AccruedInterest(history, asOf, s.rate)
	if err != nil {
		return decimal.Zero, &ComputationError{MemberID: memberID, Err: err}
	}
	return interest, nil
}

// PayoffPreview is a pre-filled edit that closes the loan in the last recorded month
type PayoffPreview struct {
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Rate            decimal.Decimal `json:"rate"`
	LoanBalance     decimal.Decimal `json:"loan_balance"`
	OpeningBalances ledger.Balances `json:"opening_balances"`
	Interest        decimal.Decimal `json:"interest"`
	LoanDisbursed   decimal.Decimal `json:"loan_disbursed"`
	LoanRepaid      decimal.Decimal `json:"loan_repaid"`
	Contribution    decimal.Decimal `json:"deposit_contribution"`
	Withdrawal      decimal.Decimal `json:"deposit_withdrawal"`
}

// ErrNoActiveLoan is returned when the last recorded month has no loan balance
var ErrNoActiveLoan = errors.New("member has no active loan")

// PayoffPreview computes interest up to the last recorded month and proposes a
// repayment equal to the remaining balance plus that month's recorded repayment.
func (s *InterestService) PayoffPreview(ctx context.Context, memberID int) (*PayoffPreview, error) {
	history, err := s.ledgerRepo.FindByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger history: %w", err)
	}
	if len(history) == 0 {
		return nil, &ComputationError{MemberID: memberID, Err: ledger.ErrNoLoanHistory}
	}

	last := history[0]
	if !last.LoanBalance.IsPositive() {
		return nil, &ComputationError{MemberID: memberID, Err: ErrNoActiveLoan}
	}

	interest, err := ledger.AccruedInterest(history, last.Period(), s.rate)
	if err != nil {
		return nil, &ComputationError{MemberID: memberID, Err: err}
	}

	opening := ledger.Balances{Loan: decimal.Zero, Deposit: decimal.Zero}
	if len(history) > 1 && history[1].Period() == last.Period().Prev() {
		opening = ledger.Balances{Loan: history[1].LoanBalance, Deposit: history[1].DepositBalance}
	}

	return &PayoffPreview{
		Month:           last.Month,
		Year:            last.Year,
		Rate:            s.rate,
		LoanBalance:     last.LoanBalance,
		OpeningBalances: opening,
		Interest:        interest,
		LoanDisbursed:   last.LoanDisbursed,
		LoanRepaid:      last.LoanBalance.Add(last.LoanRepaid),
		Contribution:    last.DepositContribution,
		Withdrawal:      last.DepositWithdrawal,
	}, nil
}

// EstimateInstallments proposes a repayment plan for a new loan. Exactly one of
// months or amount is expected.
func (s *InterestService) EstimateInstallments(loan decimal.Decimal, months int, amount decimal.Decimal) (ledger.InstallmentPlan, error) {
	var (
		plan ledger.InstallmentPlan
		err  error
	)
	if months > 0 {
		plan, err = ledger.EstimateByMonths(loan, months)
	} else {
		plan, err = ledger.EstimateByAmount(loan, amount)
	}
	if err != nil {
		return ledger.InstallmentPlan{}, &ValidationError{Field: "loan", Err: err}
	}
	return plan, nil
}
