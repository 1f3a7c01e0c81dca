package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjperalta/car-ledger-api/internal/ledger"
	"github.com/sjperalta/car-ledger-api/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLedgerService(t *testing.T, f *fixture, guard ConversionGuard) *LedgerService {
	t.Helper()
	cache, err := NewHistoryCache(8)
	require.NoError(t, err)
	return NewLedgerService(f.repos.Ledger, f.repos.Member, f.repos.Liquidated, f.repos.Inactive, cache, guard)
}

// seedLoanYear records member 1 from 01-2024 to 08-2024: a 1000.00 loan in
// January repaid by 50.00 a month, with a 100.00 monthly contribution
func seedLoanYear(t *testing.T, f *fixture) {
	t.Helper()
	f.addMember(t, 1, "Popescu Ion", "100.00")
	f.addMonths(t, ledgerMonth{member: 1, year: 2024, month: 1, disbursed: "1000", loan: "1000", contribution: "100", deposit: "100"})
	for m := 2; m <= 8; m++ {
		f.addMonths(t, ledgerMonth{
			member: 1, year: 2024, month: m,
			repaid: "50", loan: decimal.NewFromInt(int64(1000 - 50*(m-1))).String(),
			contribution: "100", deposit: decimal.NewFromInt(int64(100 * m)).String(),
		})
	}
}

func balancesAt(t *testing.T, f *fixture, year, month int) ledger.Balances {
	t.Helper()
	b, err := f.repos.Ledger.FindBalances(context.Background(), 1, models.MustPeriod(year, month))
	require.NoError(t, err)
	return *b
}

func TestSubmitEdit_CascadesToLaterMonths(t *testing.T) {
	f := newFixture(t)
	seedLoanYear(t, f)
	svc := newLedgerService(t, f, stubGuard(false))

	result, err := svc.SubmitEdit(context.Background(), 1, models.MustPeriod(2024, 3), EditRequest{
		LoanRepaid:          dec("150"),
		DepositContribution: dec("100"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.RecalculatedMonths)
	assert.True(t, result.Record.LoanBalance.Equal(dec("800")), "march loan %s", result.Record.LoanBalance)
	assert.True(t, result.Record.DepositBalance.Equal(dec("300")))

	// every later month opens with the previous closing balance
	for m := 4; m <= 8; m++ {
		prev := balancesAt(t, f, 2024, m-1)
		cur := balancesAt(t, f, 2024, m)
		assert.True(t, cur.Loan.Equal(prev.Loan.Sub(dec("50"))), "loan %02d-2024: %s", m, cur.Loan)
		assert.True(t, cur.Deposit.Equal(prev.Deposit.Add(dec("100"))), "deposit %02d-2024: %s", m, cur.Deposit)
	}
	aug := balancesAt(t, f, 2024, 8)
	assert.True(t, aug.Loan.Equal(dec("550")))
	assert.True(t, aug.Deposit.Equal(dec("800")))

	// months before the edit are untouched
	feb := balancesAt(t, f, 2024, 2)
	assert.True(t, feb.Loan.Equal(dec("950")))
}

func TestSubmitEdit_RejectsOutOfBoundsWithoutWriting(t *testing.T) {
	tests := []struct {
		name  string
		req   EditRequest
		field string
	}{
		{
			name:  "repayment above opening loan",
			req:   EditRequest{LoanRepaid: dec("950.01")},
			field: "loan_repaid",
		},
		{
			name:  "withdrawal above available deposit",
			req:   EditRequest{DepositContribution: dec("10"), DepositWithdrawal: dec("210.01")},
			field: "deposit_withdrawal",
		},
		{
			name:  "negative interest",
			req:   EditRequest{Interest: dec("-1")},
			field: "interest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedLoanYear(t, f)
			svc := newLedgerService(t, f, stubGuard(false))

			_, err := svc.SubmitEdit(context.Background(), 1, models.MustPeriod(2024, 3), tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, 1, vErr.MemberID)

			march, err := f.repos.Ledger.FindByPeriod(context.Background(), 1, models.MustPeriod(2024, 3))
			require.NoError(t, err)
			assert.True(t, march.LoanRepaid.Equal(dec("50")))
			assert.True(t, march.LoanBalance.Equal(dec("900")))
			assert.True(t, balancesAt(t, f, 2024, 8).Loan.Equal(dec("650")))
		})
	}
}

func TestSubmitEdit_MissingMonthRollsBack(t *testing.T) {
	f := newFixture(t)
	seedLoanYear(t, f)
	require.NoError(t, f.dbs.Ledger.Exec("DELETE FROM DEPCRED WHERE NR_FISA = 1 AND ANUL = 2024 AND LUNA = 6").Error)
	svc := newLedgerService(t, f, stubGuard(false))

	_, err := svc.SubmitEdit(context.Background(), 1, models.MustPeriod(2024, 3), EditRequest{
		LoanRepaid:          dec("150"),
		DepositContribution: dec("100"),
	})

	var cErr *CascadeIntegrityError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, models.MustPeriod(2024, 6), cErr.Period)

	// the edited month and the months already cascaded are rolled back
	assert.True(t, balancesAt(t, f, 2024, 3).Loan.Equal(dec("900")))
	assert.True(t, balancesAt(t, f, 2024, 4).Loan.Equal(dec("850")))
}

func TestSubmitEdit_Guards(t *testing.T) {
	t.Run("conversion in progress", func(t *testing.T) {
		f := newFixture(t)
		seedLoanYear(t, f)
		svc := newLedgerService(t, f, stubGuard(true))

		_, err := svc.SubmitEdit(context.Background(), 1, models.MustPeriod(2024, 3), EditRequest{})
		assert.ErrorIs(t, err, ErrConversionInProgress)
	})

	t.Run("unknown member", func(t *testing.T) {
		f := newFixture(t)
		svc := newLedgerService(t, f, stubGuard(false))

		_, err := svc.SubmitEdit(context.Background(), 42, models.MustPeriod(2024, 3), EditRequest{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unrecorded month", func(t *testing.T) {
		f := newFixture(t)
		seedLoanYear(t, f)
		svc := newLedgerService(t, f, stubGuard(false))

		_, err := svc.SubmitEdit(context.Background(), 1, models.MustPeriod(2025, 1), EditRequest{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSubmitEdit_UpdatesStandardContribution(t *testing.T) {
	f := newFixture(t)
	seedLoanYear(t, f)
	svc := newLedgerService(t, f, stubGuard(false))

	result, err := svc.SubmitEdit(context.Background(), 1, models.MustPeriod(2024, 8), EditRequest{
		LoanRepaid:                 dec("50"),
		DepositContribution:        dec("120"),
		UpdateStandardContribution: true,
	})
	require.NoError(t, err)
	assert.True(t, result.StandardContributionUpdated)
	assert.Zero(t, result.RecalculatedMonths)

	member, err := svc.GetMember(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, member.StandardContribution.Equal(dec("120")))
}

func TestGetLedgerHistory_InvalidatedAfterEdit(t *testing.T) {
	f := newFixture(t)
	seedLoanYear(t, f)
	svc := newLedgerService(t, f, stubGuard(false))
	ctx := context.Background()

	before, err := svc.GetLedgerHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, before, 8)
	assert.Equal(t, 8, before[0].Month, "most recent month first")

	_, err = svc.SubmitEdit(ctx, 1, models.MustPeriod(2024, 3), EditRequest{LoanRepaid: dec("150"), DepositContribution: dec("100")})
	require.NoError(t, err)

	after, err := svc.GetLedgerHistory(ctx, 1)
	require.NoError(t, err)
	assert.True(t, after[0].LoanBalance.Equal(dec("550")))
}

func TestRecalculate_RepairsExternalChange(t *testing.T) {
	f := newFixture(t)
	seedLoanYear(t, f)
	// an external tool changed May's repayment without touching balances
	require.NoError(t, f.dbs.Ledger.Exec("UPDATE DEPCRED SET IMPR_CRED = 250 WHERE NR_FISA = 1 AND ANUL = 2024 AND LUNA = 5").Error)
	svc := newLedgerService(t, f, stubGuard(false))

	months, err := svc.Recalculate(context.Background(), 1, models.MustPeriod(2024, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, months)
	assert.True(t, balancesAt(t, f, 2024, 5).Loan.Equal(dec("600")))
	assert.True(t, balancesAt(t, f, 2024, 8).Loan.Equal(dec("450")))
}

func TestGetOpeningBalances_ZeroWhenPreviousMonthMissing(t *testing.T) {
	f := newFixture(t)
	seedLoanYear(t, f)
	svc := newLedgerService(t, f, stubGuard(false))

	b, err := svc.GetOpeningBalances(context.Background(), 1, models.MustPeriod(2024, 1))
	require.NoError(t, err)
	assert.True(t, b.Loan.IsZero())
	assert.True(t, b.Deposit.IsZero())

	b, err = svc.GetOpeningBalances(context.Background(), 1, models.MustPeriod(2024, 4))
	require.NoError(t, err)
	assert.True(t, b.Loan.Equal(dec("900")))
}

func TestSubmitEdit_LaterMonthOutOfBoundsRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		months []ledgerMonth
		req    EditRequest
		field  string
		check  func(t *testing.T, f *fixture)
	}{
		{
			name: "withdrawal no longer covered",
			months: []ledgerMonth{
				{member: 1, year: 2024, month: 1, contribution: "100", deposit: "100"},
				{member: 1, year: 2024, month: 2, contribution: "100", deposit: "200"},
				{member: 1, year: 2024, month: 3, withdrawal: "200", deposit: "0"},
			},
			req:   EditRequest{DepositContribution: dec("0")},
			field: "deposit_withdrawal",
			check: func(t *testing.T, f *fixture) {
				jan, err := f.repos.Ledger.FindByPeriod(context.Background(), 1, models.MustPeriod(2024, 1))
				require.NoError(t, err)
				assert.True(t, jan.DepositContribution.Equal(dec("100")))
				assert.True(t, balancesAt(t, f, 2024, 2).Deposit.Equal(dec("200")))
				assert.True(t, balancesAt(t, f, 2024, 3).Deposit.IsZero())
			},
		},
		{
			name: "repayment above reduced loan",
			months: []ledgerMonth{
				{member: 1, year: 2024, month: 1, disbursed: "1000", loan: "1000"},
				{member: 1, year: 2024, month: 2, loan: "1000"},
				{member: 1, year: 2024, month: 3, repaid: "1000", loan: "0"},
			},
			req:   EditRequest{LoanDisbursed: dec("500")},
			field: "loan_repaid",
			check: func(t *testing.T, f *fixture) {
				assert.True(t, balancesAt(t, f, 2024, 1).Loan.Equal(dec("1000")))
				assert.True(t, balancesAt(t, f, 2024, 2).Loan.Equal(dec("1000")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addMember(t, 1, "Popescu Ion", "100")
			f.addMonths(t, tt.months...)
			svc := newLedgerService(t, f, stubGuard(false))

			_, err := svc.SubmitEdit(context.Background(), 1, models.MustPeriod(2024, 1), tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, 1, vErr.MemberID)
			assert.Equal(t, models.MustPeriod(2024, 3), vErr.Period)
			assert.Contains(t, vErr.Error(), "03-2024")
			tt.check(t, f)
		})
	}
}

func TestHistoryCache_StaleReadNotCached(t *testing.T) {
	cache, err := NewHistoryCache(4)
	require.NoError(t, err)
	records := []models.LedgerRecord{{MemberID: 1, Month: 1, Year: 2024}}

	gen := cache.Generation(1)
	cache.Invalidate(1)
	assert.False(t, cache.AddIfCurrent(1, gen, records))
	_, ok := cache.Get(1)
	assert.False(t, ok, "a history read before the edit must not be cached")

	assert.True(t, cache.AddIfCurrent(1, cache.Generation(1), records))
	got, ok := cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, records, got)

	// other members keep their own generation
	assert.True(t, cache.AddIfCurrent(2, cache.Generation(2), records))
}

func TestGetLedgerHistory_EditDuringReadNotCached(t *testing.T) {
	f := newFixture(t)
	seedLoanYear(t, f)
	svc := newLedgerService(t, f, stubGuard(false))
	ctx := context.Background()

	// an edit lands between a reader's generation snapshot and its cache write
	gen := svc.cache.Generation(1)
	stale, err := f.repos.Ledger.FindByMember(ctx, 1)
	require.NoError(t, err)
	_, err = svc.SubmitEdit(ctx, 1, models.MustPeriod(2024, 3), EditRequest{LoanRepaid: dec("150"), DepositContribution: dec("100")})
	require.NoError(t, err)
	assert.False(t, svc.cache.AddIfCurrent(1, gen, stale))

	history, err := svc.GetLedgerHistory(ctx, 1)
	require.NoError(t, err)
	assert.True(t, history[0].LoanBalance.Equal(dec("550")))
}
