package ledger

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sjperalta/car-ledger-api/internal/models"
)

var (
	ErrNoLoanHistory   = errors.New("member has no ledger history")
	ErrNoAccrualStart  = errors.New("no valid accrual start period")
	ErrInvalidInterest = errors.New("interest rate must be positive")
)

// AccrualStart finds the first month of the current loan's accrual span ending at end.
//
// The span is anchored at the last disbursement on or before end. When that month
// already carries interest the span starts there. Otherwise it starts right after
// the last full payoff preceding the disbursement, or at the disbursement itself
// when the loan was never paid off before. Without any disbursement the member's
// first recorded month is used.
func AccrualStart(history []models.LedgerRecord, end models.Period) (models.Period, error) {
	if len(history) == 0 {
		return 0, ErrNoLoanHistory
	}
	records := chronological(history)

	var disbursement *models.LedgerRecord
	for i := len(records) - 1; i >= 0; i-- {
		r := &records[i]
		if r.Period() <= end && r.LoanDisbursed.IsPositive() {
			disbursement = r
			break
		}
	}

	if disbursement == nil {
		first := records[0].Period()
		if first > end {
			return 0, ErrNoAccrualStart
		}
		return first, nil
	}

	disbursedIn := disbursement.Period()
	if disbursement.Interest.IsPositive() {
		return disbursedIn, nil
	}

	for i := len(records) - 1; i >= 0; i-- {
		r := &records[i]
		if r.Period() < disbursedIn && r.LoanBalance.LessThanOrEqual(LoanZeroThreshold) {
			start := r.Period().Next()
			if start > disbursedIn {
				start = disbursedIn
			}
			return start, nil
		}
	}
	return disbursedIn, nil
}

// AccruedInterest sums the positive loan balances of the accrual span and applies rate
func AccruedInterest(history []models.LedgerRecord, end models.Period, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidInterest
	}
	start, err := AccrualStart(history, end)
	if err != nil {
		return decimal.Zero, err
	}
	if start > end {
		return decimal.Zero, ErrNoAccrualStart
	}

	sum := decimal.Zero
	for _, r := range history {
		p := r.Period()
		if p >= start && p <= end && r.LoanBalance.IsPositive() {
			sum = sum.Add(r.LoanBalance)
		}
	}
	return Round(sum.Mul(rate)), nil
}

func chronological(history []models.LedgerRecord) []models.LedgerRecord {
	records := make([]models.LedgerRecord, len(history))
	copy(records, history)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Period() < records[j].Period()
	})
	return records
}
