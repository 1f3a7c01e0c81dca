package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sjperalta/car-ledger-api/internal/models"
)

// MemberRepository defines data access for the member registry (MEMBRII)
type MemberRepository interface {
	FindByID(ctx context.Context, id int) (*models.Member, error)
	Names(ctx context.Context) (map[int]string, error)
	IDs(ctx context.Context) ([]int, error)
	UpdateStandardContribution(ctx context.Context, id int, amount decimal.Decimal) error
}

const memberTable = "MEMBRII"

type memberRow struct {
	ID                   int                 `gorm:"column:id"`
	FullName             sql.NullString      `gorm:"column:full_name"`
	Address              sql.NullString      `gorm:"column:address"`
	Category             sql.NullString      `gorm:"column:category"`
	EnrolledOn           sql.NullString      `gorm:"column:enrolled_on"`
	StandardContribution decimal.NullDecimal `gorm:"column:standard_contribution"`
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindByID(ctx context.Context, id int) (*models.Member, error) {
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Table(memberTable).
		Select("NR_FISA AS id, NUM_PREN AS full_name, DOMICILIUL AS address, CALITATEA AS category, "+
			"DATA_INSCR AS enrolled_on, COTIZATIE_STANDARD AS standard_contribution").
		Where("NR_FISA = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	row := rows[0]
	return &models.Member{
		ID:                   row.ID,
		FullName:             row.FullName.String,
		Address:              row.Address.String,
		Category:             row.Category.String,
		EnrolledOn:           row.EnrolledOn.String,
		StandardContribution: money(row.StandardContribution),
	}, nil
}

// Names maps member ids to their registered names
func (r *memberRepository) Names(ctx context.Context) (map[int]string, error) {
	var rows []struct {
		ID   int            `gorm:"column:id"`
		Name sql.NullString `gorm:"column:name"`
	}
	err := r.db.WithContext(ctx).
		Table(memberTable).
		Select("NR_FISA AS id, NUM_PREN AS name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	names := make(map[int]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name.String
	}
	return names, nil
}

func (r *memberRepository) IDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).Table(memberTable).Distinct("NR_FISA").Order("NR_FISA").Pluck("NR_FISA", &ids).Error
	return ids, err
}

func (r *memberRepository) UpdateStandardContribution(ctx context.Context, id int, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Table(memberTable).
		Where("NR_FISA = ?", id).
		Update("COTIZATIE_STANDARD", storeAmount(amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("member %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
