package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidEstimate = errors.New("loan amount and term must be positive")

// InstallmentPlan is an advisory repayment schedule for a new loan
type InstallmentPlan struct {
	Installments int             `json:"installments"`
	Amount       decimal.Decimal `json:"amount"`
	LastAmount   decimal.Decimal `json:"last_amount"`
}

// EstimateByMonths spreads the loan evenly over months
func EstimateByMonths(loan decimal.Decimal, months int) (InstallmentPlan, error) {
	if !loan.IsPositive() || months <= 0 {
		return InstallmentPlan{}, ErrInvalidEstimate
	}
	amount := loan.DivRound(decimal.NewFromInt(int64(months)), 2)
	return InstallmentPlan{Installments: months, Amount: amount, LastAmount: amount}, nil
}

// EstimateByAmount counts the installments needed at a fixed monthly amount.
// The last installment carries whatever remains.
func EstimateByAmount(loan, amount decimal.Decimal) (InstallmentPlan, error) {
	if !loan.IsPositive() || !amount.IsPositive() {
		return InstallmentPlan{}, ErrInvalidEstimate
	}
	if amount.GreaterThan(loan) {
		return InstallmentPlan{Installments: 1, Amount: loan, LastAmount: loan}, nil
	}
	n := loan.Div(amount).Ceil().IntPart()
	last := loan.Sub(amount.Mul(decimal.NewFromInt(n - 1)))
	return InstallmentPlan{Installments: int(n), Amount: amount, LastAmount: last}, nil
}
