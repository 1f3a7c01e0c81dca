package repository

import (
	"github.com/sjperalta/car-ledger-api/internal/database"
)

// Repositories holds all repository instances over the live RON databases
type Repositories struct {
	Ledger     LedgerRepository
	Member     MemberRepository
	Active     ActiveMemberRepository
	Inactive   InactiveRepository
	Liquidated LiquidatedRepository
}

// NewRepositories creates all repository instances
func NewRepositories(dbs *database.Set) *Repositories {
	return &Repositories{
		Ledger:     NewLedgerRepository(dbs.Ledger),
		Member:     NewMemberRepository(dbs.Members),
		Active:     NewActiveMemberRepository(dbs.Active),
		Inactive:   NewInactiveRepository(dbs.Inactive),
		Liquidated: NewLiquidatedRepository(dbs.Liquidated),
	}
}
