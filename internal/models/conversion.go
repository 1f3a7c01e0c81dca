package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ConversionMethod is recorded in the status marker
const ConversionMethod = "direct per-record conversion (CE 1103/97)"

// ConversionStatus is the persisted marker proving the one-time conversion
// happened. The desktop application reads and writes the same file, so the
// keys are its keys.
type ConversionStatus struct {
	Applied     bool            `json:"conversie_aplicata"`
	ConvertedAt time.Time       `json:"data_conversie"`
	Rate        decimal.Decimal `json:"curs_folosit"`
	Actor       string          `json:"utilizator"`
	Method      string          `json:"metoda_conversie"`
	Databases   []string        `json:"baze_convertite"`
}

// markerTimeLayouts covers RFC 3339 and the zone-less ISO timestamps the
// desktop application writes
var markerTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts the desktop application's keys and the English keys
// written by earlier releases of this service. An unparseable date is left
// zero; it never hides an applied conversion.
func (s *ConversionStatus) UnmarshalJSON(data []byte) error {
	var raw struct {
		Applied     *bool               `json:"conversie_aplicata"`
		ConvertedAt string              `json:"data_conversie"`
		Rate        decimal.NullDecimal `json:"curs_folosit"`
		Actor       string              `json:"utilizator"`
		Method      string              `json:"metoda_conversie"`
		Databases   []string            `json:"baze_convertite"`

		AppliedEN     *bool               `json:"conversion_applied"`
		ConvertedAtEN string              `json:"converted_at"`
		RateEN        decimal.NullDecimal `json:"rate"`
		ActorEN       string              `json:"actor"`
		MethodEN      string              `json:"method"`
		DatabasesEN   []string            `json:"databases"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = ConversionStatus{
		Applied:   (raw.Applied != nil && *raw.Applied) || (raw.AppliedEN != nil && *raw.AppliedEN),
		Actor:     firstNonEmpty(raw.Actor, raw.ActorEN),
		Method:    firstNonEmpty(raw.Method, raw.MethodEN),
		Databases: raw.Databases,
	}
	if s.Databases == nil {
		s.Databases = raw.DatabasesEN
	}
	switch {
	case raw.Rate.Valid:
		s.Rate = raw.Rate.Decimal
	case raw.RateEN.Valid:
		s.Rate = raw.RateEN.Decimal
	}
	stamp := firstNonEmpty(raw.ConvertedAt, raw.ConvertedAtEN)
	for _, layout := range markerTimeLayouts {
		if t, err := time.ParseInLocation(layout, stamp, time.Local); err == nil {
			s.ConvertedAt = t
			break
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// TableConversion summarises one converted table
type TableConversion struct {
	Database           string          `json:"database"`
	Table              string          `json:"table"`
	Fields             []string        `json:"fields"`
	Records            int             `json:"records"`
	OriginalRON        decimal.Decimal `json:"original_ron"`
	ConvertedEUR       decimal.Decimal `json:"converted_eur"`
	TheoreticalEUR     decimal.Decimal `json:"theoretical_eur"`
	RoundingDifference decimal.Decimal `json:"rounding_difference"`
}

// CopiedDatabase is a database cloned without any monetary conversion
type CopiedDatabase struct {
	Database string `json:"database"`
	Table    string `json:"table"`
	Records  int    `json:"records"`
}

// IntegrityReport compares member ids between the ledger and the registry
type IntegrityReport struct {
	RegistryCount  int   `json:"registry_count"`
	LedgerCount    int   `json:"ledger_count"`
	OnlyInRegistry []int `json:"only_in_registry"`
	OnlyInLedger   []int `json:"only_in_ledger"`
}

// Valid is false when some member has ledger activity without registration
func (r *IntegrityReport) Valid() bool {
	return len(r.OnlyInLedger) == 0
}

// ConversionReport is the outcome of a completed conversion
type ConversionReport struct {
	RunID                   string            `json:"run_id"`
	Rate                    decimal.Decimal   `json:"rate"`
	Actor                   string            `json:"actor"`
	StartedAt               time.Time         `json:"started_at"`
	FinishedAt              time.Time         `json:"finished_at"`
	Tables                  []TableConversion `json:"tables"`
	Copied                  []CopiedDatabase  `json:"copied"`
	TotalOriginalRON        decimal.Decimal   `json:"total_original_ron"`
	TotalConvertedEUR       decimal.Decimal   `json:"total_converted_eur"`
	TotalTheoreticalEUR     decimal.Decimal   `json:"total_theoretical_eur"`
	TotalRoundingDifference decimal.Decimal   `json:"total_rounding_difference"`
	Integrity               IntegrityReport   `json:"integrity"`
	Warnings                []string          `json:"warnings,omitempty"`
}

// DatabasePreview describes one source database before conversion
type DatabasePreview struct {
	Database string                     `json:"database"`
	Table    string                     `json:"table"`
	Records  int                        `json:"records"`
	Sums     map[string]decimal.Decimal `json:"sums,omitempty"`
}

// ConversionPreview estimates the outcome without writing anything
type ConversionPreview struct {
	Rate                  decimal.Decimal   `json:"rate"`
	Databases             []DatabasePreview `json:"databases"`
	TotalRON              decimal.Decimal   `json:"total_ron"`
	EstimatedEUR          decimal.Decimal   `json:"estimated_eur"`
	EstimatedConvertedEUR decimal.Decimal   `json:"estimated_converted_eur"`
	EstimatedRoundingDiff decimal.Decimal   `json:"estimated_rounding_difference"`
	Integrity             IntegrityReport   `json:"integrity"`
	Warnings              []string          `json:"warnings,omitempty"`
}

// SystemStatus tells callers whether the conversion can still run
type SystemStatus struct {
	Converted   bool              `json:"converted"`
	Marker      *ConversionStatus `json:"marker,omitempty"`
	ClonesExist []string          `json:"clones_exist,omitempty"`
	CanConvert  bool              `json:"can_convert"`
	ActiveRunID string            `json:"active_run_id,omitempty"`
}

// Conversion run stages
const (
	StageQueued            = "queued"
	StageValidatingSchema  = "validating_schema"
	StageValidatingData    = "validating_data"
	StageCheckingIntegrity = "checking_integrity"
	StageLocking           = "locking"
	StageCloning           = "cloning"
	StageConverting        = "converting"
	StageFinalizing        = "finalizing"
	StageCompleted         = "completed"
	StageFailed            = "failed"
	StageCancelled         = "cancelled"
)

// ConversionRun is the observable state of a background conversion
type ConversionRun struct {
	ID         string            `json:"id"`
	Actor      string            `json:"actor"`
	Rate       decimal.Decimal   `json:"rate"`
	Stage      string            `json:"stage"`
	Progress   int               `json:"progress"`
	Message    string            `json:"message"`
	Error      string            `json:"error,omitempty"`
	Report     *ConversionReport `json:"report,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// Done reports whether the run reached a terminal stage
func (r *ConversionRun) Done() bool {
	return r.Stage == StageCompleted || r.Stage == StageFailed || r.Stage == StageCancelled
}
