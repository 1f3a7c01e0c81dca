// Package ledger holds the pure monetary rules of the member ledger: closing
// balance computation, interest accrual and installment estimates. Nothing here
// touches storage.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

// LoanZeroThreshold is the residual at or below which a loan balance is closed
var LoanZeroThreshold = decimal.RequireFromString("0.005")

var (
	ErrRepaymentExceedsBalance = errors.New("repayment exceeds opening loan balance")
	ErrWithdrawalExceedsFunds  = errors.New("withdrawal exceeds opening deposit balance plus contribution")
	ErrNegativeAmount          = errors.New("amount must not be negative")
)

// Balances are the loan and deposit balances at a month boundary
type Balances struct {
	Loan    decimal.Decimal `json:"loan"`
	Deposit decimal.Decimal `json:"deposit"`
}

// Movements are the period transactions that move the balances
type Movements struct {
	LoanDisbursed       decimal.Decimal
	LoanRepaid          decimal.Decimal
	DepositContribution decimal.Decimal
	DepositWithdrawal   decimal.Decimal
}

// Round quantizes to cents, half away from zero
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SnapLoan closes loan balances with a negligible or negative residual
func SnapLoan(balance decimal.Decimal) decimal.Decimal {
	if balance.LessThanOrEqual(LoanZeroThreshold) {
		return decimal.Zero
	}
	return Round(balance)
}

// Closing applies the balance formula without any bound checks. Used when
// recomputing months whose transactions are already stored.
func Closing(opening Balances, m Movements) Balances {
	loan := opening.Loan.Add(m.LoanDisbursed).Sub(m.LoanRepaid)
	deposit := opening.Deposit.Add(m.DepositContribution).Sub(m.DepositWithdrawal)
	return Balances{
		Loan:    SnapLoan(loan),
		Deposit: Round(deposit),
	}
}

// FieldError names the movement that broke a bound
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// ComputeClosing validates the movements against the opening balances and
// returns the closing balances. Nothing is returned on failure.
func ComputeClosing(opening Balances, m Movements) (Balances, error) {
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"loan_disbursed", m.LoanDisbursed},
		{"loan_repaid", m.LoanRepaid},
		{"deposit_contribution", m.DepositContribution},
		{"deposit_withdrawal", m.DepositWithdrawal},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return Balances{}, &FieldError{Field: a.field, Err: ErrNegativeAmount}
		}
	}
	if m.LoanRepaid.GreaterThan(opening.Loan) {
		return Balances{}, &FieldError{Field: "loan_repaid", Err: ErrRepaymentExceedsBalance}
	}
	if m.DepositWithdrawal.GreaterThan(opening.Deposit.Add(m.DepositContribution)) {
		return Balances{}, &FieldError{Field: "deposit_withdrawal", Err: ErrWithdrawalExceedsFunds}
	}
	return Closing(opening, m), nil
}
