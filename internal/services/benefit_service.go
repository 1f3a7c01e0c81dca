package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sjperalta/car-ledger-api/internal/jobs"
	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/repository"
	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

// BenefitDistribution is the outcome of an annual profit distribution
type BenefitDistribution struct {
	Year              int                   `json:"year"`
	Profit            decimal.Decimal       `json:"profit"`
	TotalBalances     decimal.Decimal       `json:"total_balances"`
	TotalDistributed  decimal.Decimal       `json:"total_distributed"`
	Members           []models.ActiveMember `json:"members"`
	SkippedLiquidated int                   `json:"skipped_liquidated"`
	Applied           bool                  `json:"applied"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
	Error             string                `json:"error,omitempty"`
}

// BenefitTransfer is the outcome of moving distributed benefits into the
// following January. MissingJanuary lists members with no January record.
type BenefitTransfer struct {
	Year             int                `json:"year"`
	Target           string             `json:"target"`
	Members          []TransferredEntry `json:"members"`
	TotalTransferred decimal.Decimal    `json:"total_transferred"`
	AlreadyDone      []int              `json:"already_transferred"`
	MissingJanuary   []int              `json:"missing_january"`
	Failed           map[int]string     `json:"failed,omitempty"`
}

type TransferredEntry struct {
	MemberID           int             `json:"member_id"`
	Amount             decimal.Decimal `json:"amount"`
	DepositBalance     decimal.Decimal `json:"deposit_balance"`
	RecalculatedMonths int             `json:"recalculated_months"`
}

// BenefitService distributes the yearly profit over members' deposit balances
// and rebuilds the active members summary
type BenefitService struct {
	ledgerRepo     repository.LedgerRepository
	memberRepo     repository.MemberRepository
	liquidatedRepo repository.LiquidatedRepository
	activeRepo     repository.ActiveMemberRepository
	ledger         *LedgerService
	guard          ConversionGuard
	worker         *jobs.Worker
	log            *slog.Logger

	mu   sync.RWMutex
	last *BenefitDistribution
}

func NewBenefitService(
	ledgerRepo repository.LedgerRepository,
	memberRepo repository.MemberRepository,
	liquidatedRepo repository.LiquidatedRepository,
	activeRepo repository.ActiveMemberRepository,
	ledger *LedgerService,
	guard ConversionGuard,
	worker *jobs.Worker,
) *BenefitService {
	return &BenefitService{
		ledgerRepo:     ledgerRepo,
		memberRepo:     memberRepo,
		liquidatedRepo: liquidatedRepo,
		activeRepo:     activeRepo,
		ledger:         ledger,
		guard:          guard,
		worker:         worker,
		log:            logger.With("benefits"),
	}
}

func validateBenefitInput(year int, profit decimal.Decimal) error {
	if year < 1 || year > 9999 {
		return &ValidationError{Field: "year", Reason: fmt.Sprintf("invalid year %d", year)}
	}
	if !profit.IsPositive() {
		return &ValidationError{Field: "profit", Reason: "profit must be greater than 0"}
	}
	return nil
}

// Calculate computes each eligible member's benefit without writing anything
func (s *BenefitService) Calculate(ctx context.Context, year int, profit decimal.Decimal) (*BenefitDistribution, error) {
	if err := validateBenefitInput(year, profit); err != nil {
		return nil, err
	}

	totals, err := s.ledgerRepo.YearDepositTotals(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit balances for %d: %w", year, err)
	}
	liquidated, err := s.liquidatedRepo.MemberIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load liquidated members: %w", err)
	}
	names, err := s.memberRepo.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load member names: %w", err)
	}

	dist := &BenefitDistribution{Year: year, Profit: profit, Members: []models.ActiveMember{}}
	eligible := totals[:0:0]
	for _, t := range totals {
		if liquidated[t.MemberID] {
			dist.SkippedLiquidated++
			continue
		}
		eligible = append(eligible, t)
		dist.TotalBalances = dist.TotalBalances.Add(t.SumOfBalances)
	}
	if !dist.TotalBalances.IsPositive() {
		return nil, ErrNoBenefitBase
	}

	for _, t := range eligible {
		name, ok := names[t.MemberID]
		if !ok || name == "" {
			name = fmt.Sprintf("Fisa %d", t.MemberID)
		}
		benefit := profit.Mul(t.SumOfBalances).DivRound(dist.TotalBalances, 2)
		dist.TotalDistributed = dist.TotalDistributed.Add(benefit)
		dist.Members = append(dist.Members, models.ActiveMember{
			MemberID:       t.MemberID,
			FullName:       name,
			DepositBalance: t.DecemberBalance,
			Dividend:       benefit,
		})
	}
	return dist, nil
}

// Distribute calculates and replaces the active members summary
func (s *BenefitService) Distribute(ctx context.Context, year int, profit decimal.Decimal) (*BenefitDistribution, error) {
	release, err := holdForEdit(s.guard)
	if err != nil {
		return nil, err
	}
	defer release()

	dist, err := s.Calculate(ctx, year, profit)
	if err != nil {
		return nil, err
	}
	if err := s.activeRepo.ReplaceAll(ctx, dist.Members); err != nil {
		return nil, fmt.Errorf("failed to rewrite active members: %w", err)
	}

	now := time.Now()
	dist.Applied = true
	dist.CompletedAt = &now
	s.log.Info("Benefits distributed",
		"year", year,
		"members", len(dist.Members),
		"profit", profit.StringFixed(2),
		"distributed", dist.TotalDistributed.StringFixed(2),
	)
	return dist, nil
}

// Transfer adds each distributed benefit to the member's January contribution
// of the following year and recalculates the later months. Members already
// transferred are skipped, so running it twice moves nothing the second time.
// A member without a January record is reported and left untouched.
func (s *BenefitService) Transfer(ctx context.Context, year int) (*BenefitTransfer, error) {
	if year < 1 || year >= 9999 {
		return nil, &ValidationError{Field: "year", Reason: fmt.Sprintf("invalid year %d", year)}
	}
	release, err := holdForEdit(s.guard)
	if err != nil {
		return nil, err
	}
	defer release()

	members, err := s.activeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active members: %w", err)
	}

	january := models.MustPeriod(year+1, 1)
	out := &BenefitTransfer{
		Year:           year,
		Target:         january.String(),
		Members:        []TransferredEntry{},
		AlreadyDone:    []int{},
		MissingJanuary: []int{},
	}
	pending := 0
	for _, m := range members {
		if !m.Dividend.IsPositive() {
			continue
		}
		pending++
		if m.Transferred.IsPositive() {
			out.AlreadyDone = append(out.AlreadyDone, m.MemberID)
			continue
		}

		entry, err := s.transferOne(ctx, m, january)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out.MissingJanuary = append(out.MissingJanuary, m.MemberID)
		case err != nil:
			if out.Failed == nil {
				out.Failed = map[int]string{}
			}
			out.Failed[m.MemberID] = err.Error()
			s.log.Warn("Benefit not transferred", "member", m.MemberID, "error", err)
		default:
			out.Members = append(out.Members, *entry)
			out.TotalTransferred = out.TotalTransferred.Add(entry.Amount)
		}
	}
	if pending == 0 {
		return nil, ErrNoBenefitsToTransfer
	}

	s.log.Info("Benefits transferred",
		"year", year,
		"target", january.String(),
		"members", len(out.Members),
		"missing_january", len(out.MissingJanuary),
		"total", out.TotalTransferred.StringFixed(2),
	)
	return out, nil
}

func (s *BenefitService) transferOne(ctx context.Context, m models.ActiveMember, january models.Period) (*TransferredEntry, error) {
	record, err := s.ledgerRepo.FindByPeriod(ctx, m.MemberID, january)
	if err != nil {
		return nil, err
	}

	result, err := s.ledger.submitEdit(ctx, m.MemberID, january, EditRequest{
		Interest:            record.Interest,
		LoanDisbursed:       record.LoanDisbursed,
		LoanRepaid:          record.LoanRepaid,
		DepositContribution: record.DepositContribution.Add(m.Dividend),
		DepositWithdrawal:   record.DepositWithdrawal,
	})
	if err != nil {
		return nil, err
	}
	if err := s.activeRepo.MarkTransferred(ctx, m.MemberID, m.Dividend); err != nil {
		return nil, fmt.Errorf("benefit added to %s but not marked as transferred: %w", january, err)
	}
	return &TransferredEntry{
		MemberID:           m.MemberID,
		Amount:             m.Dividend,
		DepositBalance:     result.Record.DepositBalance,
		RecalculatedMonths: result.RecalculatedMonths,
	}, nil
}

// Queue validates the input and runs Distribute on the worker. The outcome is
// available from Last.
func (s *BenefitService) Queue(year int, profit decimal.Decimal) error {
	if err := validateBenefitInput(year, profit); err != nil {
		return err
	}
	if s.guard != nil && s.guard.InProgress() {
		return ErrConversionInProgress
	}

	s.worker.Enqueue(func(ctx context.Context) error {
		dist, err := s.Distribute(ctx, year, profit)
		if err != nil {
			now := time.Now()
			dist = &BenefitDistribution{Year: year, Profit: profit, CompletedAt: &now, Error: err.Error()}
		}
		s.mu.Lock()
		s.last = dist
		s.mu.Unlock()
		return err
	})
	return nil
}

// Last returns the most recent queued distribution, if any
func (s *BenefitService) Last() (*BenefitDistribution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	dist := *s.last
	return &dist, true
}
