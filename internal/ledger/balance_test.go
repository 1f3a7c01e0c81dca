package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeClosing_FullRepaymentClosesLoan(t *testing.T) {
	closing, err := ComputeClosing(
		Balances{Loan: d("500.00"), Deposit: d("100.00")},
		Movements{LoanRepaid: d("500.00")},
	)
	require.NoError(t, err)
	assert.True(t, closing.Loan.Equal(decimal.Zero), "got %s", closing.Loan)
	assert.False(t, closing.Loan.IsNegative())
	assert.True(t, closing.Deposit.Equal(d("100.00")))
}

func TestComputeClosing_Bounds(t *testing.T) {
	opening := Balances{Loan: d("300.00"), Deposit: d("50.00")}

	tests := []struct {
		name      string
		movements Movements
		field     string
		target    error
	}{
		{
			name:      "repayment above opening loan",
			movements: Movements{LoanRepaid: d("300.01")},
			field:     "loan_repaid",
			target:    ErrRepaymentExceedsBalance,
		},
		{
			name:      "repayment counts only opening balance, not same month disbursement",
			movements: Movements{LoanDisbursed: d("100.00"), LoanRepaid: d("350.00")},
			field:     "loan_repaid",
			target:    ErrRepaymentExceedsBalance,
		},
		{
			name:      "withdrawal above deposit plus contribution",
			movements: Movements{DepositContribution: d("10.00"), DepositWithdrawal: d("60.01")},
			field:     "deposit_withdrawal",
			target:    ErrWithdrawalExceedsFunds,
		},
		{
			name:      "negative contribution",
			movements: Movements{DepositContribution: d("-1")},
			field:     "deposit_contribution",
			target:    ErrNegativeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeClosing(opening, tt.movements)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestComputeClosing_WithdrawalAtLimitIsAccepted(t *testing.T) {
	closing, err := ComputeClosing(
		Balances{Deposit: d("50.00")},
		Movements{DepositContribution: d("10.00"), DepositWithdrawal: d("60.00")},
	)
	require.NoError(t, err)
	assert.True(t, closing.Deposit.IsZero())
}

func TestSnapLoan_ZeroFloorIsIdempotent(t *testing.T) {
	for _, v := range []string{"0.005", "0.004", "0", "-0.01", "-12.30"} {
		t.Run(v, func(t *testing.T) {
			once := SnapLoan(d(v))
			assert.True(t, once.IsZero(), "SnapLoan(%s) = %s", v, once)
			assert.True(t, SnapLoan(once).Equal(once))
		})
	}

	assert.True(t, SnapLoan(d("0.006")).Equal(d("0.01")))
}

func TestClosing_AppliesFloorWithoutBoundChecks(t *testing.T) {
	closing := Closing(
		Balances{Loan: d("100.00"), Deposit: d("20.00")},
		Movements{LoanRepaid: d("100.004"), DepositContribution: d("5.00")},
	)
	assert.True(t, closing.Loan.IsZero())
	assert.True(t, closing.Deposit.Equal(d("25.00")))

	again := Closing(Balances{Loan: closing.Loan, Deposit: decimal.Zero}, Movements{})
	assert.True(t, again.Loan.Equal(closing.Loan))
}

func TestRound_HalfUp(t *testing.T) {
	assert.Equal(t, "1.01", Round(d("1.005")).StringFixed(2))
	assert.Equal(t, "2.20", Round(d("2.2")).StringFixed(2))
	assert.Equal(t, "1.67", Round(d("1.665")).StringFixed(2))
}
