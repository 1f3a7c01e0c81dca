package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is a calendar month linearised as year*12 + (month-1), so chronological
// order is plain integer order.
type Period int

// NewPeriod builds a Period from a calendar month
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month %d", month)
	}
	if year < 1 {
		return 0, fmt.Errorf("invalid year %d", year)
	}
	return Period(year*12 + month - 1), nil
}

// MustPeriod is NewPeriod for literals known to be valid
func MustPeriod(year, month int) Period {
	p, err := NewPeriod(year, month)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePeriod accepts "MM-YYYY"
func ParsePeriod(s string) (Period, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid period %q, expected MM-YYYY", s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", s, err)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return NewPeriod(year, month)
}

func (p Period) Year() int  { return int(p) / 12 }
func (p Period) Month() int { return int(p)%12 + 1 }

func (p Period) Next() Period { return p + 1 }
func (p Period) Prev() Period { return p - 1 }

func (p Period) String() string {
	return fmt.Sprintf("%02d-%d", p.Month(), p.Year())
}

// PeriodSQL is the SQL expression matching Period for DEPCRED rows
const PeriodSQL = "(ANUL * 12 + LUNA - 1)"
