package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sjperalta/car-ledger-api/internal/config"
	"github.com/sjperalta/car-ledger-api/internal/database"
	"github.com/sjperalta/car-ledger-api/internal/jobs"
	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/repository"
	"github.com/sjperalta/car-ledger-api/internal/statemachine"
	"github.com/sjperalta/car-ledger-api/internal/storage"
	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

// finished runs are kept this long for status and report queries
const runRetention = 24 * time.Hour

// ConversionRequest starts a RON to EUR conversion
type ConversionRequest struct {
	Rate                 decimal.Decimal
	Actor                string
	AcknowledgeIntegrity bool
}

// ProgressFunc receives percentage checkpoints
type ProgressFunc func(percent int, message string)

// ConversionCallbacks are invoked from the worker goroutine of an async run
type ConversionCallbacks struct {
	OnProgress ProgressFunc
	OnComplete func(report *models.ConversionReport)
	OnError    func(err error)
}

type conversionRun struct {
	state  models.ConversionRun
	cancel context.CancelFunc
}

// ConversionService performs the one-time RON to EUR conversion of the five
// ledger databases into EUR clones
type ConversionService struct {
	cfg     *config.Config
	storage *storage.LocalStorage
	worker  *jobs.Worker
	sources []sourceDatabase
	log     *slog.Logger

	// files is held for writing while the sources are cloned; ledger
	// writers hold it for reading through HoldForEdit
	files sync.RWMutex

	mu     sync.RWMutex
	busy   bool
	active string
	runs   map[string]*conversionRun
}

func NewConversionService(cfg *config.Config, store *storage.LocalStorage, worker *jobs.Worker) *ConversionService {
	return &ConversionService{
		cfg:     cfg,
		storage: store,
		worker:  worker,
		sources: sourceDatabases(cfg.Files),
		log:     logger.With("conversion"),
		runs:    make(map[string]*conversionRun),
	}
}

// InProgress reports whether a conversion currently holds the databases
func (s *ConversionService) InProgress() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// HoldForEdit lets a ledger writer run without overlapping the clone stage.
// It fails once a conversion has started; otherwise the returned release
// must be called when the write has committed or rolled back.
func (s *ConversionService) HoldForEdit() (func(), error) {
	s.files.RLock()
	if s.InProgress() {
		s.files.RUnlock()
		return nil, ErrConversionInProgress
	}
	return s.files.RUnlock, nil
}

// Status reads the marker and looks for EUR clones
func (s *ConversionService) Status() (*models.SystemStatus, error) {
	marker, err := s.readMarker()
	if err != nil {
		return nil, err
	}

	status := &models.SystemStatus{Marker: marker}
	status.Converted = marker != nil && marker.Applied
	status.ClonesExist = s.existingClones()

	s.mu.RLock()
	status.ActiveRunID = s.active
	status.CanConvert = !status.Converted && len(status.ClonesExist) == 0 && !s.busy
	s.mu.RUnlock()
	return status, nil
}

func (s *ConversionService) existingClones() []string {
	var found []string
	for _, src := range s.sources {
		if s.storage.Exists(src.eurFile) {
			found = append(found, src.eurFile)
		}
	}
	return found
}

// checkNotConverted refuses a run when the marker says the conversion was
// applied, or when EUR databases exist without a marker
func (s *ConversionService) checkNotConverted() error {
	marker, err := s.readMarker()
	if err != nil {
		return err
	}
	if marker != nil && marker.Applied {
		return ErrAlreadyConverted
	}
	if clones := s.existingClones(); len(clones) > 0 {
		return fmt.Errorf("%w: EUR databases already exist: %s", ErrAlreadyConverted, strings.Join(clones, ", "))
	}
	return nil
}

func (s *ConversionService) readMarker() (*models.ConversionStatus, error) {
	var marker models.ConversionStatus
	if err := s.storage.ReadJSON(s.cfg.StatusFile, &marker); err != nil {
		if storage.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read conversion status: %w", err)
	}
	return &marker, nil
}

// Preview estimates the conversion without locking or writing anything
func (s *ConversionService) Preview(ctx context.Context, rate decimal.Decimal) (*models.ConversionPreview, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}

	checks, err := validateSchemas(ctx, s.storage, s.sources)
	if err != nil {
		return nil, err
	}
	scans, err := scanAmounts(ctx, s.storage, checks, rate)
	if err != nil {
		return nil, err
	}
	integrity, err := checkIntegrity(ctx, s.storage, s.sources)
	if err != nil {
		return nil, err
	}

	preview := &models.ConversionPreview{Rate: rate, Integrity: *integrity}
	byName := make(map[string]tableScan, len(scans))
	for _, scan := range scans {
		byName[scan.source.schema.Name] = scan
		preview.TotalRON = preview.TotalRON.Add(scan.total)
		preview.EstimatedConvertedEUR = preview.EstimatedConvertedEUR.Add(scan.converted)
	}
	for _, check := range checks {
		db := models.DatabasePreview{
			Database: check.source.schema.Name,
			Table:    check.source.schema.Table,
			Records:  check.records,
		}
		if scan, ok := byName[db.Database]; ok {
			db.Sums = scan.sums
		}
		preview.Databases = append(preview.Databases, db)
	}
	preview.EstimatedEUR = convertAmount(preview.TotalRON, rate)
	preview.EstimatedRoundingDiff = preview.EstimatedConvertedEUR.Sub(preview.EstimatedEUR)

	if !integrity.Valid() {
		preview.Warnings = append(preview.Warnings,
			fmt.Sprintf("%d member(s) have ledger activity without registration; conversion needs acknowledgment", len(integrity.OnlyInLedger)))
	}
	if marker, err := s.readMarker(); err != nil {
		return nil, err
	} else if marker != nil && marker.Applied {
		preview.Warnings = append(preview.Warnings, "conversion was already applied on "+marker.ConvertedAt.Format(time.RFC3339))
	}
	if clones := s.existingClones(); len(clones) > 0 {
		preview.Warnings = append(preview.Warnings, "EUR databases already exist: "+strings.Join(clones, ", "))
	}
	return preview, nil
}

// RunConversion converts synchronously on the calling goroutine
func (s *ConversionService) RunConversion(ctx context.Context, req ConversionRequest, progress ProgressFunc) (*models.ConversionReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	id, err := s.begin(req, cancel)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, id, req, progress)
}

// StartConversion queues the conversion on the worker and returns the run id
func (s *ConversionService) StartConversion(req ConversionRequest, cb ConversionCallbacks) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.beginLocked(req)
	if err != nil {
		return "", err
	}

	run := s.runs[id]
	run.cancel = s.worker.EnqueueCancellable("conversion-"+id, func(ctx context.Context) error {
		report, err := s.execute(ctx, id, req, cb.OnProgress)
		if err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return err
		}
		if cb.OnComplete != nil {
			cb.OnComplete(report)
		}
		return nil
	})
	return id, nil
}

func (s *ConversionService) begin(req ConversionRequest, cancel context.CancelFunc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.beginLocked(req)
	if err != nil {
		return "", err
	}
	s.runs[id].cancel = cancel
	return id, nil
}

// beginLocked checks the preconditions and registers a queued run
func (s *ConversionService) beginLocked(req ConversionRequest) (string, error) {
	if err := validateRate(req.Rate); err != nil {
		return "", err
	}
	if s.busy {
		return "", ErrConversionInProgress
	}
	if err := s.checkNotConverted(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	s.busy = true
	s.active = id
	s.runs[id] = &conversionRun{state: models.ConversionRun{
		ID:        id,
		Actor:     req.Actor,
		Rate:      req.Rate,
		Stage:     models.StageQueued,
		StartedAt: time.Now(),
	}}
	return id, nil
}

// GetRun returns a snapshot of a run
func (s *ConversionService) GetRun(id string) (*models.ConversionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	state := run.state
	return &state, nil
}

// CancelRun asks a running conversion to stop at the next stage boundary
func (s *ConversionService) CancelRun(id string) error {
	s.mu.RLock()
	run, ok := s.runs[id]
	var (
		cancel context.CancelFunc
		stage  string
		done   bool
	)
	if ok {
		cancel = run.cancel
		stage = run.state.Stage
		done = run.state.Done()
	}
	s.mu.RUnlock()

	if !ok {
		return ErrRunNotFound
	}
	if done {
		return fmt.Errorf("run %s already %s: %w", id, stage, ErrConversionNotCancellable)
	}
	if cancel == nil {
		return fmt.Errorf("run %s is not cancellable: %w", id, ErrConversionNotCancellable)
	}
	cancel()
	s.log.Info("Conversion cancellation requested", "run_id", id)
	return nil
}

// PruneRuns forgets finished runs older than the retention window
func (s *ConversionService) PruneRuns(ctx context.Context) error {
	cutoff := time.Now().Add(-runRetention)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, run := range s.runs {
		if run.state.FinishedAt != nil && run.state.FinishedAt.Before(cutoff) {
			delete(s.runs, id)
		}
	}
	return nil
}

func (s *ConversionService) updateRun(id string, fn func(run *models.ConversionRun)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		fn(&run.state)
	}
}

// execute drives one run through its stages and records the outcome
func (s *ConversionService) execute(ctx context.Context, id string, req ConversionRequest, progress ProgressFunc) (*models.ConversionReport, error) {
	machine := statemachine.NewConversionFSM(models.StageQueued, func(stage string) {
		s.updateRun(id, func(run *models.ConversionRun) { run.Stage = stage })
	})
	emit := func(percent int, message string) {
		s.updateRun(id, func(run *models.ConversionRun) {
			run.Progress = percent
			run.Message = message
		})
		s.log.Info("Conversion progress", "run_id", id, "percent", percent, "message", message)
		if progress != nil {
			progress(percent, message)
		}
	}

	report, err := s.convert(ctx, machine, id, req, emit)

	now := time.Now()
	if err != nil {
		cancelled := errors.Is(err, context.Canceled) && machine.Can(statemachine.EventCancel)
		if cancelled {
			_ = machine.Advance(context.Background(), statemachine.EventCancel)
			s.log.Warn("Conversion cancelled", "run_id", id, "stage", machine.Current())
		} else {
			if machine.Can(statemachine.EventFail) {
				_ = machine.Advance(context.Background(), statemachine.EventFail)
			}
			s.log.Error("Conversion failed", "run_id", id, "error", err)
			sentry.CaptureException(fmt.Errorf("conversion run %s: %w", id, err))
		}
	}

	s.mu.Lock()
	if run, ok := s.runs[id]; ok {
		run.state.FinishedAt = &now
		if err != nil {
			run.state.Error = err.Error()
		} else {
			run.state.Report = report
		}
	}
	s.busy = false
	s.active = ""
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ConversionService) convert(ctx context.Context, machine *statemachine.ConversionFSM, id string, req ConversionRequest, emit ProgressFunc) (*models.ConversionReport, error) {
	// stage transitions use a detached context; cancellation is checked explicitly
	step := func(event string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return machine.Advance(context.Background(), event)
	}

	report := &models.ConversionReport{
		RunID:     id,
		Rate:      req.Rate,
		Actor:     req.Actor,
		StartedAt: time.Now(),
	}

	if err := step(statemachine.EventValidateSchema); err != nil {
		return nil, err
	}
	emit(5, "Validating database schemas")
	checks, err := validateSchemas(ctx, s.storage, s.sources)
	if err != nil {
		return nil, err
	}
	emit(15, "Schemas validated")

	if err := step(statemachine.EventValidateData); err != nil {
		return nil, err
	}
	scans, err := scanAmounts(ctx, s.storage, checks, req.Rate)
	if err != nil {
		return nil, err
	}
	emit(25, "Monetary values validated")

	if err := step(statemachine.EventCheckIntegrity); err != nil {
		return nil, err
	}
	integrity, err := checkIntegrity(ctx, s.storage, s.sources)
	if err != nil {
		return nil, err
	}
	report.Integrity = *integrity
	if !integrity.Valid() {
		if !req.AcknowledgeIntegrity {
			return nil, &IntegrityError{Report: *integrity}
		}
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("converted with %d unregistered member(s) acknowledged: %v", len(integrity.OnlyInLedger), integrity.OnlyInLedger))
	}
	if len(integrity.OnlyInRegistry) > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d registered member(s) have no ledger activity", len(integrity.OnlyInRegistry)))
	}
	emit(35, "Member registry checked")

	if err := step(statemachine.EventLock); err != nil {
		return nil, err
	}
	files := make([]string, len(s.sources))
	for i, src := range s.sources {
		files[i] = src.file
	}
	locks, err := s.storage.LockAll(ctx, files, s.cfg.LockTimeout, s.cfg.LockRetryDelay)
	if err != nil {
		var lockErr *storage.LockError
		if errors.As(err, &lockErr) {
			return nil, &ConcurrencyError{File: lockErr.File, Err: lockErr.Err}
		}
		return nil, err
	}
	defer locks.Release()
	emit(45, fmt.Sprintf("Locked %d databases", locks.Len()))

	if err := step(statemachine.EventClone); err != nil {
		return nil, err
	}
	var renamed []string
	published := false
	defer func() {
		if !published {
			s.removePartials()
			s.unpublish(renamed)
		}
	}()
	if err := s.cloneSources(ctx); err != nil {
		return nil, err
	}
	emit(55, "Databases cloned")

	if err := step(statemachine.EventConvert); err != nil {
		return nil, err
	}
	for i, scan := range scans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// a table in flight is committed or rolled back as a whole
		table, err := s.convertTable(context.WithoutCancel(ctx), scan, req.Rate)
		if err != nil {
			return nil, err
		}
		report.Tables = append(report.Tables, *table)
		report.TotalOriginalRON = report.TotalOriginalRON.Add(table.OriginalRON)
		report.TotalConvertedEUR = report.TotalConvertedEUR.Add(table.ConvertedEUR)
		emit(55+35*(i+1)/len(scans), fmt.Sprintf("Converted %s (%d records)", table.Table, table.Records))
	}
	for _, check := range checks {
		if !check.source.convert {
			report.Copied = append(report.Copied, models.CopiedDatabase{
				Database: check.source.schema.Name,
				Table:    check.source.schema.Table,
				Records:  check.records,
			})
		}
	}
	report.TotalTheoreticalEUR = convertAmount(report.TotalOriginalRON, req.Rate)
	report.TotalRoundingDifference = report.TotalConvertedEUR.Sub(report.TotalTheoreticalEUR)

	if err := step(statemachine.EventFinalize); err != nil {
		return nil, err
	}
	for _, src := range s.sources {
		if s.storage.Exists(src.eurFile) {
			return nil, fmt.Errorf("%w: %s appeared during the run", ErrAlreadyConverted, src.eurFile)
		}
		if err := s.storage.Rename(src.partialFile(), src.eurFile); err != nil {
			return nil, fmt.Errorf("failed to publish %s: %w", src.eurFile, err)
		}
		renamed = append(renamed, src.eurFile)
	}
	converted := renamed
	published = true
	locks.Release()

	report.FinishedAt = time.Now()
	marker := models.ConversionStatus{
		Applied:     true,
		ConvertedAt: report.FinishedAt,
		Rate:        req.Rate,
		Actor:       req.Actor,
		Method:      models.ConversionMethod,
		Databases:   converted,
	}
	if err := s.storage.WriteJSON(s.cfg.StatusFile, marker); err != nil {
		return nil, fmt.Errorf("failed to persist conversion status: %w", err)
	}
	emit(95, "Conversion status recorded")

	if err := machine.Advance(context.Background(), statemachine.EventComplete); err != nil {
		return nil, err
	}
	emit(100, fmt.Sprintf("Conversion completed, rounding difference %s EUR", report.TotalRoundingDifference.StringFixed(2)))
	return report, nil
}

// cloneSources copies every source to its partial clone. Ledger writers are
// held off for the duration so no copy sees a half-applied edit.
func (s *ConversionService) cloneSources(ctx context.Context) error {
	s.files.Lock()
	defer s.files.Unlock()

	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.storage.Exists(src.eurFile) {
			return fmt.Errorf("%w: %s already exists", ErrAlreadyConverted, src.eurFile)
		}
		if err := s.storage.Clone(src.file, src.partialFile()); err != nil {
			return fmt.Errorf("failed to clone %s: %w", src.schema.Name, err)
		}
	}
	return nil
}

// unpublish deletes the EUR databases a failed run already renamed into
// place, so a partial set never looks converted
func (s *ConversionService) unpublish(files []string) {
	for _, name := range files {
		if err := s.storage.Delete(name); err != nil && !storage.IsNotExist(err) {
			s.log.Error("Failed to remove EUR database of a failed run", "file", name, "error", err)
		}
	}
}

// removePartials deletes unfinished clones after a failed or cancelled run
func (s *ConversionService) removePartials() {
	for _, src := range s.sources {
		if err := s.storage.Delete(src.partialFile()); err != nil && !storage.IsNotExist(err) {
			s.log.Warn("Failed to remove partial clone", "file", src.partialFile(), "error", err)
		}
	}
}

// convertTable rewrites every monetary field of one cloned table in a single
// transaction
func (s *ConversionService) convertTable(ctx context.Context, scan tableScan, rate decimal.Decimal) (*models.TableConversion, error) {
	src := scan.source
	db, err := database.Connect(s.storage.GetFullPath(src.partialFile()), src.schema.Name+"EUR", database.Options{})
	if err != nil {
		return nil, err
	}
	defer database.Close(db)

	result := &models.TableConversion{
		Database: src.schema.Name,
		Table:    src.schema.Table,
		Fields:   scan.fields,
	}

	repo := repository.NewTableRepository(db, src.schema.Table)
	err = repo.Transaction(ctx, func(tx repository.TableRepository) error {
		rows, err := tx.LoadAmounts(ctx, memberIDColumn, scan.fields)
		if err != nil {
			return err
		}
		for _, row := range rows {
			values, err := parseRow(src.schema.Name, row, scan.fields)
			if err != nil {
				return err
			}
			converted := make(map[string]decimal.Decimal, len(values))
			for field, ron := range values {
				eur := convertAmount(ron, rate)
				converted[field] = eur
				result.OriginalRON = result.OriginalRON.Add(ron)
				result.ConvertedEUR = result.ConvertedEUR.Add(eur)
			}
			if len(converted) > 0 {
				if err := tx.UpdateAmounts(ctx, row.RowID, converted); err != nil {
					return err
				}
			}
		}
		result.Records = len(rows)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", src.schema.Table, err)
	}

	result.TheoreticalEUR = convertAmount(result.OriginalRON, rate)
	result.RoundingDifference = result.ConvertedEUR.Sub(result.TheoreticalEUR)
	return result, nil
}
