package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNotANumber = errors.New("value is not a finite number")

// TableRepository gives column-level access to one legacy table. Schema and data
// validation use it on the source files, the currency conversion on their clones.
type TableRepository interface {
	Table() string
	Exists(ctx context.Context) (bool, error)
	Columns(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	LoadAmounts(ctx context.Context, idColumn string, fields []string) ([]AmountRow, error)
	UpdateAmounts(ctx context.Context, rowID int64, values map[string]decimal.Decimal) error
	Transaction(ctx context.Context, fn func(repo TableRepository) error) error
}

// AmountRow carries the raw stored values of the requested monetary fields
type AmountRow struct {
	RowID    int64
	MemberID int64
	Raw      map[string]any
}

type tableRepository struct {
	db    *gorm.DB
	table string
}

// NewTableRepository creates a repository over the named table of db
func NewTableRepository(db *gorm.DB, table string) TableRepository {
	return &tableRepository{db: db, table: table}
}

func (r *tableRepository) Table() string { return r.table }

func (r *tableRepository) Exists(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE", r.table).
		Scan(&count).Error
	return count > 0, err
}

func (r *tableRepository) Columns(ctx context.Context) ([]string, error) {
	var cols []struct {
		Name string `gorm:"column:name"`
	}
	err := r.db.WithContext(ctx).Raw(fmt.Sprintf("PRAGMA table_info(%q)", r.table)).Scan(&cols).Error
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

func (r *tableRepository) Count(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.table).Count(&count).Error
	return int(count), err
}

// LoadAmounts reads every row's rowid, member id and the given fields as stored
func (r *tableRepository) LoadAmounts(ctx context.Context, idColumn string, fields []string) ([]AmountRow, error) {
	cols := append([]string{"rowid", idColumn}, fields...)
	rows, err := r.db.WithContext(ctx).Table(r.table).Select(strings.Join(cols, ", ")).Order("rowid").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AmountRow
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := AmountRow{
			RowID:    asInt64(values[0]),
			MemberID: asInt64(values[1]),
			Raw:      make(map[string]any, len(fields)),
		}
		for i, f := range fields {
			row.Raw[f] = values[i+2]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateAmounts writes the given fields of one row, addressed by rowid
func (r *tableRepository) UpdateAmounts(ctx context.Context, rowID int64, values map[string]decimal.Decimal) error {
	updates := make(map[string]interface{}, len(values))
	for field, v := range values {
		updates[field] = storeAmount(v)
	}
	result := r.db.WithContext(ctx).Table(r.table).Where("rowid = ?", rowID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s rowid %d: %w", r.table, rowID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *tableRepository) Transaction(ctx context.Context, fn func(repo TableRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&tableRepository{db: tx, table: r.table})
	})
}

// ParseAmount converts a raw stored value into an exact decimal. NULL and empty
// text count as zero; anything that is not a finite number is rejected.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, nil
	case int64:
		return decimal.NewFromInt(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero, ErrNotANumber
		}
		return decimal.NewFromFloat(val), nil
	case []byte:
		return parseAmountText(string(val))
	case string:
		return parseAmountText(val)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrNotANumber, v)
	}
}

func parseAmountText(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return d, nil
}

func asInt64(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case float64:
		return int64(val)
	case []byte:
		n, _ := strconv.ParseInt(string(val), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	}
	return 0
}
