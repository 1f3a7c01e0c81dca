package models

import (
	"github.com/shopspring/decimal"
)

// LedgerRecord is one member's loan and deposit snapshot for one calendar month (DEPCRED)
type LedgerRecord struct {
	MemberID            int             `json:"member_id"`
	Month               int             `json:"month"`
	Year                int             `json:"year"`
	Interest            decimal.Decimal `json:"interest"`
	LoanDisbursed       decimal.Decimal `json:"loan_disbursed"`
	LoanRepaid          decimal.Decimal `json:"loan_repaid"`
	LoanBalance         decimal.Decimal `json:"loan_balance"`
	DepositContribution decimal.Decimal `json:"deposit_contribution"`
	DepositWithdrawal   decimal.Decimal `json:"deposit_withdrawal"`
	DepositBalance      decimal.Decimal `json:"deposit_balance"`
	FirstInstallment    *int            `json:"first_installment,omitempty"`
}

// Period returns the record's linearised month
func (r *LedgerRecord) Period() Period {
	return Period(r.Year*12 + r.Month - 1)
}

// LedgerFields lists the DEPCRED monetary columns in storage order
var LedgerFields = []string{"DOBANDA", "IMPR_DEB", "IMPR_CRED", "IMPR_SOLD", "DEP_DEB", "DEP_CRED", "DEP_SOLD"}
