package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjperalta/car-ledger-api/internal/jobs"
	"github.com/sjperalta/car-ledger-api/internal/models"
)

func newBenefitService(t *testing.T, f *fixture, guard ConversionGuard) *BenefitService {
	t.Helper()
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)
	ledgerSvc := newLedgerService(t, f, guard)
	return NewBenefitService(f.repos.Ledger, f.repos.Member, f.repos.Liquidated, f.repos.Active, ledgerSvc, guard, worker)
}

func seedBenefitYear(t *testing.T, f *fixture) {
	t.Helper()
	f.addMember(t, 1, "Popescu Ion", "100")
	f.addMember(t, 2, "", "100")
	f.addMember(t, 3, "Lichidat Vasile", "100")
	f.addMonths(t,
		ledgerMonth{member: 1, year: 2023, month: 1, deposit: "100"},
		ledgerMonth{member: 1, year: 2023, month: 12, deposit: "300"},
		ledgerMonth{member: 2, year: 2023, month: 12, deposit: "100"},
		ledgerMonth{member: 3, year: 2023, month: 12, deposit: "500"},
		// no December balance, not eligible
		ledgerMonth{member: 4, year: 2023, month: 6, deposit: "900"},
	)
	f.liquidate(t, 3, "15-11-2023")
}

func TestBenefitCalculate(t *testing.T) {
	f := newFixture(t)
	seedBenefitYear(t, f)
	svc := newBenefitService(t, f, stubGuard(false))

	dist, err := svc.Calculate(context.Background(), 2023, dec("100"))
	require.NoError(t, err)

	assert.Equal(t, 1, dist.SkippedLiquidated)
	assert.True(t, dist.TotalBalances.Equal(dec("500")))
	require.Len(t, dist.Members, 2)

	assert.Equal(t, 1, dist.Members[0].MemberID)
	assert.True(t, dist.Members[0].Dividend.Equal(dec("80")), "member 1: %s", dist.Members[0].Dividend)
	assert.True(t, dist.Members[0].DepositBalance.Equal(dec("300")))
	assert.Equal(t, "Fisa 2", dist.Members[1].FullName)
	assert.True(t, dist.Members[1].Dividend.Equal(dec("20")))
	assert.True(t, dist.TotalDistributed.Equal(dec("100")))
	assert.False(t, dist.Applied)

	active, err := f.repos.Active.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active, "calculation must not write")
}

func TestBenefitDistribute(t *testing.T) {
	t.Run("rewrites active members", func(t *testing.T) {
		f := newFixture(t)
		seedBenefitYear(t, f)
		require.NoError(t, f.dbs.Active.Exec("INSERT INTO ACTIVI (NR_FISA, NUM_PREN, DEP_SOLD, DIVIDEND) VALUES (99, 'Vechi', 1, 1)").Error)
		svc := newBenefitService(t, f, stubGuard(false))

		dist, err := svc.Distribute(context.Background(), 2023, dec("100"))
		require.NoError(t, err)
		assert.True(t, dist.Applied)
		require.NotNil(t, dist.CompletedAt)

		active, err := f.repos.Active.List(context.Background())
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, 1, active[0].MemberID)
		assert.True(t, active[0].Dividend.Equal(dec("80")))
	})

	t.Run("nothing to distribute", func(t *testing.T) {
		f := newFixture(t)
		seedBenefitYear(t, f)
		svc := newBenefitService(t, f, stubGuard(false))

		_, err := svc.Distribute(context.Background(), 2019, dec("100"))
		assert.ErrorIs(t, err, ErrNoBenefitBase)
	})

	t.Run("conversion in progress", func(t *testing.T) {
		f := newFixture(t)
		svc := newBenefitService(t, f, stubGuard(true))

		_, err := svc.Distribute(context.Background(), 2023, dec("100"))
		assert.ErrorIs(t, err, ErrConversionInProgress)
		assert.ErrorIs(t, svc.Queue(2023, dec("100")), ErrConversionInProgress)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		svc := newBenefitService(t, f, stubGuard(false))

		var vErr *ValidationError
		assert.ErrorAs(t, svc.Queue(2023, dec("0")), &vErr)
		assert.ErrorAs(t, svc.Queue(0, dec("10")), &vErr)
	})
}

func TestBenefitQueue_RecordsLastOutcome(t *testing.T) {
	f := newFixture(t)
	seedBenefitYear(t, f)
	svc := newBenefitService(t, f, stubGuard(false))

	_, ok := svc.Last()
	assert.False(t, ok)

	require.NoError(t, svc.Queue(2023, dec("100")))
	require.Eventually(t, func() bool {
		last, ok := svc.Last()
		return ok && last.CompletedAt != nil
	}, 5*time.Second, 10*time.Millisecond)

	last, _ := svc.Last()
	assert.True(t, last.Applied)
	assert.Empty(t, last.Error)
}

func TestBenefitTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("adds benefit to january and cascades", func(t *testing.T) {
		f := newFixture(t)
		seedBenefitYear(t, f)
		f.addMonths(t,
			ledgerMonth{member: 1, year: 2024, month: 1, contribution: "10", deposit: "310"},
			ledgerMonth{member: 1, year: 2024, month: 2, contribution: "10", deposit: "320"},
		)
		svc := newBenefitService(t, f, stubGuard(false))
		_, err := svc.Distribute(ctx, 2023, dec("100"))
		require.NoError(t, err)

		out, err := svc.Transfer(ctx, 2023)
		require.NoError(t, err)

		assert.Equal(t, "01-2024", out.Target)
		require.Len(t, out.Members, 1)
		assert.Equal(t, 1, out.Members[0].MemberID)
		assert.True(t, out.Members[0].Amount.Equal(dec("80")))
		assert.Equal(t, 1, out.Members[0].RecalculatedMonths)
		assert.True(t, out.TotalTransferred.Equal(dec("80")))
		// member 2 has a benefit but no january record
		assert.Equal(t, []int{2}, out.MissingJanuary)

		jan, err := f.repos.Ledger.FindByPeriod(ctx, 1, models.MustPeriod(2024, 1))
		require.NoError(t, err)
		assert.True(t, jan.DepositContribution.Equal(dec("90")), "january contribution %s", jan.DepositContribution)
		assert.True(t, jan.DepositBalance.Equal(dec("390")))
		assert.True(t, balancesAt(t, f, 2024, 2).Deposit.Equal(dec("400")))

		active, err := f.repos.Active.List(ctx)
		require.NoError(t, err)
		assert.True(t, active[0].Transferred.Equal(dec("80")))
		assert.True(t, active[1].Transferred.IsZero())
	})

	t.Run("second run moves nothing", func(t *testing.T) {
		f := newFixture(t)
		seedBenefitYear(t, f)
		f.addMonths(t, ledgerMonth{member: 1, year: 2024, month: 1, contribution: "10", deposit: "310"})
		svc := newBenefitService(t, f, stubGuard(false))
		_, err := svc.Distribute(ctx, 2023, dec("100"))
		require.NoError(t, err)

		_, err = svc.Transfer(ctx, 2023)
		require.NoError(t, err)
		again, err := svc.Transfer(ctx, 2023)
		require.NoError(t, err)

		assert.Empty(t, again.Members)
		assert.Equal(t, []int{1}, again.AlreadyDone)
		assert.True(t, balancesAt(t, f, 2024, 1).Deposit.Equal(dec("390")))
	})

	t.Run("nothing distributed", func(t *testing.T) {
		f := newFixture(t)
		svc := newBenefitService(t, f, stubGuard(false))

		_, err := svc.Transfer(ctx, 2023)
		assert.ErrorIs(t, err, ErrNoBenefitsToTransfer)
	})

	t.Run("conversion in progress", func(t *testing.T) {
		f := newFixture(t)
		svc := newBenefitService(t, f, stubGuard(true))

		_, err := svc.Transfer(ctx, 2023)
		assert.ErrorIs(t, err, ErrConversionInProgress)
	})
}
