package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/sjperalta/car-ledger-api/internal/models"
)

// LiquidatedRepository defines data access for liquidated members (lichidati)
type LiquidatedRepository interface {
	FindByMemberID(ctx context.Context, memberID int) (*models.LiquidatedMember, error)
	MemberIDs(ctx context.Context) (map[int]bool, error)
}

type liquidatedRepository struct {
	db *gorm.DB
}

// NewLiquidatedRepository creates a new liquidated-members repository
func NewLiquidatedRepository(db *gorm.DB) LiquidatedRepository {
	return &liquidatedRepository{db: db}
}

// FindByMemberID returns nil without error when the member is not liquidated
func (r *liquidatedRepository) FindByMemberID(ctx context.Context, memberID int) (*models.LiquidatedMember, error) {
	var rows []struct {
		MemberID int            `gorm:"column:member_id"`
		Date     sql.NullString `gorm:"column:liquidated_on"`
	}
	err := r.db.WithContext(ctx).
		Table("lichidati").
		Select("nr_fisa AS member_id, data_lichidare AS liquidated_on").
		Where("nr_fisa = ?", memberID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &models.LiquidatedMember{MemberID: rows[0].MemberID, LiquidatedOn: rows[0].Date.String}, nil
}

func (r *liquidatedRepository) MemberIDs(ctx context.Context) (map[int]bool, error) {
	var ids []int
	if err := r.db.WithContext(ctx).Table("lichidati").Pluck("nr_fisa", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// InactiveRepository defines data access for inactive members (inactivi)
type InactiveRepository interface {
	List(ctx context.Context) ([]models.InactiveMember, error)
}

type inactiveRepository struct {
	db *gorm.DB
}

// NewInactiveRepository creates a new inactive-members repository
func NewInactiveRepository(db *gorm.DB) InactiveRepository {
	return &inactiveRepository{db: db}
}

func (r *inactiveRepository) List(ctx context.Context) ([]models.InactiveMember, error) {
	var rows []struct {
		MemberID int            `gorm:"column:member_id"`
		Name     sql.NullString `gorm:"column:full_name"`
		Missing  sql.NullInt64  `gorm:"column:missing_months"`
	}
	err := r.db.WithContext(ctx).
		Table("inactivi").
		Select("nr_fisa AS member_id, num_pren AS full_name, lipsa_luni AS missing_months").
		Order("nr_fisa").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	members := make([]models.InactiveMember, len(rows))
	for i, row := range rows {
		members[i] = models.InactiveMember{
			MemberID:      row.MemberID,
			FullName:      row.Name.String,
			MissingMonths: int(row.Missing.Int64),
		}
	}
	return members, nil
}
