package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sjperalta/car-ledger-api/internal/models"
)

// ActiveMemberRepository defines data access for the yearly summary (ACTIVI)
type ActiveMemberRepository interface {
	List(ctx context.Context) ([]models.ActiveMember, error)
	ReplaceAll(ctx context.Context, members []models.ActiveMember) error
	MarkTransferred(ctx context.Context, memberID int, amount decimal.Decimal) error
}

type activeMemberRepository struct {
	db *gorm.DB
}

// NewActiveMemberRepository creates a new active-members repository
func NewActiveMemberRepository(db *gorm.DB) ActiveMemberRepository {
	return &activeMemberRepository{db: db}
}

func (r *activeMemberRepository) List(ctx context.Context) ([]models.ActiveMember, error) {
	var rows []struct {
		MemberID int                 `gorm:"column:member_id"`
		Name     sql.NullString      `gorm:"column:full_name"`
		Balance  decimal.NullDecimal `gorm:"column:deposit_balance"`
		Dividend decimal.NullDecimal `gorm:"column:dividend"`
		Benefit  decimal.NullDecimal `gorm:"column:transferred"`
	}
	columns := "NR_FISA AS member_id, NUM_PREN AS full_name, DEP_SOLD AS deposit_balance, DIVIDEND AS dividend"
	// older summaries were created without BENEFICIU
	if r.db.Migrator().HasColumn("ACTIVI", "BENEFICIU") {
		columns += ", BENEFICIU AS transferred"
	}
	err := r.db.WithContext(ctx).
		Table("ACTIVI").
		Select(columns).
		Order("NR_FISA").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	members := make([]models.ActiveMember, len(rows))
	for i, row := range rows {
		members[i] = models.ActiveMember{
			MemberID:       row.MemberID,
			FullName:       row.Name.String,
			DepositBalance: money(row.Balance),
			Dividend:       money(row.Dividend),
			Transferred:    money(row.Benefit),
		}
	}
	return members, nil
}

// ReplaceAll clears the summary and inserts members in one transaction
func (r *activeMemberRepository) ReplaceAll(ctx context.Context, members []models.ActiveMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM ACTIVI").Error; err != nil {
			return err
		}
		for _, m := range members {
			err := tx.Exec(
				"INSERT INTO ACTIVI (NR_FISA, NUM_PREN, DEP_SOLD, DIVIDEND) VALUES (?, ?, ?, ?)",
				m.MemberID, m.FullName, storeAmount(m.DepositBalance), storeAmount(m.Dividend),
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkTransferred records the benefit amount moved into the ledger for a member
func (r *activeMemberRepository) MarkTransferred(ctx context.Context, memberID int, amount decimal.Decimal) error {
	db := r.db.WithContext(ctx)
	if !db.Migrator().HasColumn("ACTIVI", "BENEFICIU") {
		if err := db.Exec("ALTER TABLE ACTIVI ADD COLUMN BENEFICIU REAL DEFAULT 0.00").Error; err != nil {
			return err
		}
	}
	return db.Exec("UPDATE ACTIVI SET BENEFICIU = ? WHERE NR_FISA = ?", storeAmount(amount), memberID).Error
}
