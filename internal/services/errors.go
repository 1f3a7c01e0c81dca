package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sjperalta/car-ledger-api/internal/models"
)

// Common service errors
var (
	ErrNotFound                 = errors.New("record not found")
	ErrUnauthorized             = errors.New("invalid credentials")
	ErrAlreadyConverted         = errors.New("currency conversion already applied")
	ErrConversionInProgress     = errors.New("a currency conversion is in progress")
	ErrInvalidRate              = errors.New("conversion rate must be greater than 0 and at most 10")
	ErrRunNotFound              = errors.New("conversion run not found")
	ErrConversionNotCancellable = errors.New("conversion run can no longer be cancelled")
	ErrNoBenefitBase            = errors.New("no eligible deposit balances for benefit distribution")
	ErrNoBenefitsToTransfer     = errors.New("no distributed benefits to transfer")
)

// ValidationError is malformed or out-of-policy input. Nothing was written.
type ValidationError struct {
	MemberID int
	Database string
	Field    string
	// Period is set when a later month breaks a bound during a cascade
	Period models.Period
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	if e.Database != "" {
		fmt.Fprintf(&b, " in %s", e.Database)
	}
	if e.MemberID != 0 {
		fmt.Fprintf(&b, " for member %d", e.MemberID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " on %s", e.Field)
	}
	if e.Period != 0 {
		fmt.Fprintf(&b, " in %s", e.Period)
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	} else if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SchemaError means a source database is absent, empty or missing a table/column
type SchemaError struct {
	Database string
	Table    string
	Column   string
	Reason   string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema error in %s", e.Database)
	if e.Table != "" {
		msg += "." + e.Table
	}
	if e.Column != "" {
		msg += "." + e.Column
	}
	return msg + ": " + e.Reason
}

// IntegrityError reports members with ledger activity but no registration.
// It blocks only until the operator acknowledges it.
type IntegrityError struct {
	Report models.IntegrityReport
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%d member(s) have ledger activity without registration: %v",
		len(e.Report.OnlyInLedger), e.Report.OnlyInLedger)
}

// ConcurrencyError means an exclusive file lock could not be acquired
type ConcurrencyError struct {
	File string
	Err  error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("could not lock %s, close every application using the databases and retry: %v", e.File, e.Err)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

// CascadeIntegrityError is a missing month inside a cascade range
type CascadeIntegrityError struct {
	MemberID int
	Period   models.Period
}

func (e *CascadeIntegrityError) Error() string {
	return fmt.Sprintf("member %d has no ledger record for %s inside the recalculation range", e.MemberID, e.Period)
}

// ComputationError means an advisory figure could not be derived from the ledger
type ComputationError struct {
	MemberID int
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("cannot compute interest for member %d: %v", e.MemberID, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
