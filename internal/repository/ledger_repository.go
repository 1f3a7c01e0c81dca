package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sjperalta/car-ledger-api/internal/ledger"
	"github.com/sjperalta/car-ledger-api/internal/models"
)

// LedgerRepository defines data access for the monthly member ledger (DEPCRED)
type LedgerRepository interface {
	FindByMember(ctx context.Context, memberID int) ([]models.LedgerRecord, error)
	FindByPeriod(ctx context.Context, memberID int, period models.Period) (*models.LedgerRecord, error)
	FindBalances(ctx context.Context, memberID int, period models.Period) (*ledger.Balances, error)
	LastPeriod(ctx context.Context, memberID int) (models.Period, bool, error)
	UpdateTransaction(ctx context.Context, record *models.LedgerRecord) error
	UpdateBalances(ctx context.Context, memberID int, period models.Period, balances ledger.Balances) error
	MemberIDs(ctx context.Context) ([]int, error)
	YearDepositTotals(ctx context.Context, year int) ([]DepositTotal, error)
	Transaction(ctx context.Context, fn func(repo LedgerRepository) error) error
}

// DepositTotal aggregates a member's positive deposit balances over one year
type DepositTotal struct {
	MemberID        int
	SumOfBalances   decimal.Decimal
	DecemberBalance decimal.Decimal
}

const ledgerTable = "DEPCRED"

// Explicit aliases keep scanning independent of the legacy column casing
const ledgerColumns = "NR_FISA AS member_id, LUNA AS month, ANUL AS year, " +
	"DOBANDA AS interest, IMPR_DEB AS loan_disbursed, IMPR_CRED AS loan_repaid, IMPR_SOLD AS loan_balance, " +
	"DEP_DEB AS deposit_contribution, DEP_CRED AS deposit_withdrawal, DEP_SOLD AS deposit_balance, PRIMA AS first_installment"

// ledgerRow is the storage shape of a DEPCRED row. Legacy rows may hold NULLs.
type ledgerRow struct {
	MemberID            int                 `gorm:"column:member_id"`
	Month               int                 `gorm:"column:month"`
	Year                int                 `gorm:"column:year"`
	Interest            decimal.NullDecimal `gorm:"column:interest"`
	LoanDisbursed       decimal.NullDecimal `gorm:"column:loan_disbursed"`
	LoanRepaid          decimal.NullDecimal `gorm:"column:loan_repaid"`
	LoanBalance         decimal.NullDecimal `gorm:"column:loan_balance"`
	DepositContribution decimal.NullDecimal `gorm:"column:deposit_contribution"`
	DepositWithdrawal   decimal.NullDecimal `gorm:"column:deposit_withdrawal"`
	DepositBalance      decimal.NullDecimal `gorm:"column:deposit_balance"`
	FirstInstallment    sql.NullInt64       `gorm:"column:first_installment"`
}

func (row *ledgerRow) toModel() models.LedgerRecord {
	rec := models.LedgerRecord{
		MemberID:            row.MemberID,
		Month:               row.Month,
		Year:                row.Year,
		Interest:            money(row.Interest),
		LoanDisbursed:       money(row.LoanDisbursed),
		LoanRepaid:          money(row.LoanRepaid),
		LoanBalance:         money(row.LoanBalance),
		DepositContribution: money(row.DepositContribution),
		DepositWithdrawal:   money(row.DepositWithdrawal),
		DepositBalance:      money(row.DepositBalance),
	}
	if row.FirstInstallment.Valid {
		v := int(row.FirstInstallment.Int64)
		rec.FirstInstallment = &v
	}
	return rec
}

// money turns a stored amount into cents; NULL counts as zero
func money(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal.Round(2)
}

// storeAmount is the REAL value written back to the legacy columns
func storeAmount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(ledgerTable)
}

// FindByMember returns the member's history, most recent month first
func (r *ledgerRepository) FindByMember(ctx context.Context, memberID int) ([]models.LedgerRecord, error) {
	var rows []ledgerRow
	err := r.table(ctx).
		Select(ledgerColumns).
		Where("NR_FISA = ?", memberID).
		Order(models.PeriodSQL + " DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]models.LedgerRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toModel()
	}
	return records, nil
}

// FindByPeriod returns gorm.ErrRecordNotFound when the month is not recorded
func (r *ledgerRepository) FindByPeriod(ctx context.Context, memberID int, period models.Period) (*models.LedgerRecord, error) {
	var rows []ledgerRow
	err := r.table(ctx).
		Select(ledgerColumns).
		Where("NR_FISA = ? AND ANUL = ? AND LUNA = ?", memberID, period.Year(), period.Month()).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	rec := rows[0].toModel()
	return &rec, nil
}

// FindBalances returns the closing balances of a month, gorm.ErrRecordNotFound when absent
func (r *ledgerRepository) FindBalances(ctx context.Context, memberID int, period models.Period) (*ledger.Balances, error) {
	var rows []struct {
		Loan    decimal.NullDecimal `gorm:"column:loan"`
		Deposit decimal.NullDecimal `gorm:"column:deposit"`
	}
	err := r.table(ctx).
		Select("IMPR_SOLD AS loan, DEP_SOLD AS deposit").
		Where("NR_FISA = ? AND ANUL = ? AND LUNA = ?", memberID, period.Year(), period.Month()).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &ledger.Balances{Loan: money(rows[0].Loan), Deposit: money(rows[0].Deposit)}, nil
}

// LastPeriod returns the most recent recorded month for the member
func (r *ledgerRepository) LastPeriod(ctx context.Context, memberID int) (models.Period, bool, error) {
	var last sql.NullInt64
	err := r.table(ctx).
		Select("MAX("+models.PeriodSQL+")").
		Where("NR_FISA = ?", memberID).
		Scan(&last).Error
	if err != nil {
		return 0, false, err
	}
	if !last.Valid {
		return 0, false, nil
	}
	return models.Period(last.Int64), true, nil
}

// UpdateTransaction rewrites every monetary field of an existing month
func (r *ledgerRepository) UpdateTransaction(ctx context.Context, record *models.LedgerRecord) error {
	result := r.table(ctx).
		Where("NR_FISA = ? AND ANUL = ? AND LUNA = ?", record.MemberID, record.Year, record.Month).
		Updates(map[string]interface{}{
			"DOBANDA":   storeAmount(record.Interest),
			"IMPR_DEB":  storeAmount(record.LoanDisbursed),
			"IMPR_CRED": storeAmount(record.LoanRepaid),
			"IMPR_SOLD": storeAmount(record.LoanBalance),
			"DEP_DEB":   storeAmount(record.DepositContribution),
			"DEP_CRED":  storeAmount(record.DepositWithdrawal),
			"DEP_SOLD":  storeAmount(record.DepositBalance),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("ledger month %s for member %d: %w", record.Period(), record.MemberID, gorm.ErrRecordNotFound)
	}
	return nil
}

// UpdateBalances writes only the closing balances of a month
func (r *ledgerRepository) UpdateBalances(ctx context.Context, memberID int, period models.Period, balances ledger.Balances) error {
	result := r.table(ctx).
		Where("NR_FISA = ? AND ANUL = ? AND LUNA = ?", memberID, period.Year(), period.Month()).
		Updates(map[string]interface{}{
			"IMPR_SOLD": storeAmount(balances.Loan),
			"DEP_SOLD":  storeAmount(balances.Deposit),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("ledger month %s for member %d: %w", period, memberID, gorm.ErrRecordNotFound)
	}
	return nil
}

// MemberIDs returns the distinct members with ledger activity
func (r *ledgerRepository) MemberIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.table(ctx).Distinct("NR_FISA").Order("NR_FISA").Pluck("NR_FISA", &ids).Error
	return ids, err
}

// YearDepositTotals sums positive deposit balances per member for a year,
// keeping only members with a positive December balance
func (r *ledgerRepository) YearDepositTotals(ctx context.Context, year int) ([]DepositTotal, error) {
	var rows []struct {
		MemberID int                 `gorm:"column:member_id"`
		Total    decimal.NullDecimal `gorm:"column:total"`
		December decimal.NullDecimal `gorm:"column:december"`
	}
	err := r.table(ctx).
		Select("NR_FISA AS member_id, SUM(DEP_SOLD) AS total, MAX(CASE WHEN LUNA = 12 THEN DEP_SOLD ELSE 0 END) AS december").
		Where("ANUL = ? AND DEP_SOLD > 0", year).
		Group("NR_FISA").
		Having("SUM(DEP_SOLD) > 0 AND MAX(CASE WHEN LUNA = 12 THEN DEP_SOLD ELSE 0 END) > 0").
		Order("NR_FISA").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make([]DepositTotal, len(rows))
	for i, row := range rows {
		totals[i] = DepositTotal{
			MemberID:        row.MemberID,
			SumOfBalances:   money(row.Total),
			DecemberBalance: money(row.December),
		}
	}
	return totals, nil
}

// Transaction runs fn against a repository bound to a single DB transaction
func (r *ledgerRepository) Transaction(ctx context.Context, fn func(repo LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}
