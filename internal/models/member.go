package models

import (
	"github.com/shopspring/decimal"
)

// Member is an entry of the member registry (MEMBRII)
type Member struct {
	ID                   int             `json:"id"`
	FullName             string          `json:"full_name"`
	Address              string          `json:"address"`
	Category             string          `json:"category"`
	EnrolledOn           string          `json:"enrolled_on"`
	StandardContribution decimal.Decimal `json:"standard_contribution"`
	LiquidatedOn         *string         `json:"liquidated_on,omitempty"`
}

// IsLiquidated reports whether the member appears in the liquidated registry
func (m *Member) IsLiquidated() bool {
	return m.LiquidatedOn != nil
}

// LiquidatedMember is an entry of the liquidated registry (lichidati)
type LiquidatedMember struct {
	MemberID     int    `json:"member_id"`
	LiquidatedOn string `json:"liquidated_on"`
}

// InactiveMember is an entry of the inactive registry (inactivi)
type InactiveMember struct {
	MemberID      int    `json:"member_id"`
	FullName      string `json:"full_name"`
	MissingMonths int    `json:"missing_months"`
}

// ActiveMember is a row of the yearly active-members summary (ACTIVI)
type ActiveMember struct {
	MemberID       int             `json:"member_id"`
	FullName       string          `json:"full_name"`
	DepositBalance decimal.Decimal `json:"deposit_balance"`
	Dividend       decimal.Decimal `json:"dividend"`
	// Transferred is the part of Dividend already added to the next January
	Transferred decimal.Decimal `json:"transferred"`
}
