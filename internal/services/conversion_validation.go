package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sjperalta/car-ledger-api/internal/config"
	"github.com/sjperalta/car-ledger-api/internal/database"
	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/repository"
	"github.com/sjperalta/car-ledger-api/internal/storage"
)

const memberIDColumn = "NR_FISA"

// fields that may never hold a negative amount
var nonNegativeFields = map[string]bool{
	"COTIZATIE_STANDARD": true,
	"DEP_SOLD":           true,
}

// sourceDatabase pairs a legacy file with its EUR clone
type sourceDatabase struct {
	schema  database.Schema
	file    string
	eurFile string
	convert bool
}

func (s sourceDatabase) partialFile() string {
	return s.eurFile + ".partial"
}

// eurFileName derives the clone name, DEPCRED.db -> DEPCREDEUR.db
func eurFileName(file string) string {
	if strings.HasSuffix(strings.ToLower(file), ".db") {
		return file[:len(file)-3] + "EUR" + file[len(file)-3:]
	}
	return file + "EUR"
}

func sourceDatabases(files config.DatabaseFiles) []sourceDatabase {
	return []sourceDatabase{
		{schema: database.LedgerSchema, file: files.Ledger, eurFile: eurFileName(files.Ledger), convert: true},
		{schema: database.MembersSchema, file: files.Members, eurFile: eurFileName(files.Members), convert: true},
		{schema: database.ActiveSchema, file: files.Active, eurFile: eurFileName(files.Active), convert: true},
		{schema: database.InactiveSchema, file: files.Inactive, eurFile: eurFileName(files.Inactive)},
		{schema: database.LiquidatedSchema, file: files.Liquidated, eurFile: eurFileName(files.Liquidated)},
	}
}

// schemaCheck is the outcome of validating one source file
type schemaCheck struct {
	source  sourceDatabase
	records int
	fields  []string
}

// tableScan holds the parsed monetary content of one table
type tableScan struct {
	source  sourceDatabase
	fields  []string
	records int
	sums    map[string]decimal.Decimal
	total   decimal.Decimal
	// sum of the values converted one by one
	converted decimal.Decimal
}

// validateSchemas checks every source file in parallel. The first failure is
// returned as a *SchemaError.
func validateSchemas(ctx context.Context, store *storage.LocalStorage, sources []sourceDatabase) ([]schemaCheck, error) {
	checks := make([]schemaCheck, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			check, err := validateSchema(gctx, store, src)
			if err != nil {
				return err
			}
			checks[i] = *check
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return checks, nil
}

func validateSchema(ctx context.Context, store *storage.LocalStorage, src sourceDatabase) (*schemaCheck, error) {
	size, err := store.GetSize(src.file)
	if err != nil {
		return nil, &SchemaError{Database: src.schema.Name, Reason: "database file is missing"}
	}
	if size == 0 {
		return nil, &SchemaError{Database: src.schema.Name, Reason: "database file is empty"}
	}

	db, err := database.Connect(store.GetFullPath(src.file), src.schema.Name, database.Options{ReadOnly: true})
	if err != nil {
		return nil, &SchemaError{Database: src.schema.Name, Reason: err.Error()}
	}
	defer database.Close(db)

	repo := repository.NewTableRepository(db, src.schema.Table)
	exists, err := repo.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", src.schema.Name, err)
	}
	if !exists {
		return nil, &SchemaError{Database: src.schema.Name, Table: src.schema.Table, Reason: "table is missing"}
	}

	columns, err := repo.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", src.schema.Table, err)
	}
	present := make(map[string]string, len(columns))
	for _, c := range columns {
		present[strings.ToUpper(c)] = c
	}
	for _, required := range src.schema.Required {
		if _, ok := present[strings.ToUpper(required)]; !ok {
			return nil, &SchemaError{Database: src.schema.Name, Table: src.schema.Table, Column: required, Reason: "column is missing"}
		}
	}

	// optional monetary columns such as BENEFICIU are converted only when present
	var fields []string
	for _, m := range src.schema.Monetary {
		if actual, ok := present[strings.ToUpper(m)]; ok {
			fields = append(fields, actual)
		}
	}

	records, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", src.schema.Table, err)
	}

	return &schemaCheck{source: src, records: records, fields: fields}, nil
}

// scanAmounts parses every monetary value of the converting tables in parallel,
// rejecting non-numeric and disallowed negative values
func scanAmounts(ctx context.Context, store *storage.LocalStorage, checks []schemaCheck, rate decimal.Decimal) ([]tableScan, error) {
	var (
		mu    sync.Mutex
		scans []tableScan
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, check := range checks {
		if !check.source.convert {
			continue
		}
		check := check
		g.Go(func() error {
			db, err := database.Connect(store.GetFullPath(check.source.file), check.source.schema.Name, database.Options{ReadOnly: true})
			if err != nil {
				return err
			}
			defer database.Close(db)

			scan, err := scanTable(gctx, repository.NewTableRepository(db, check.source.schema.Table), check, rate)
			if err != nil {
				return err
			}
			mu.Lock()
			scans = append(scans, *scan)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	order := make(map[string]int, len(checks))
	for i, c := range checks {
		order[c.source.schema.Name] = i
	}
	sort.Slice(scans, func(i, j int) bool {
		return order[scans[i].source.schema.Name] < order[scans[j].source.schema.Name]
	})
	return scans, nil
}

func scanTable(ctx context.Context, repo repository.TableRepository, check schemaCheck, rate decimal.Decimal) (*tableScan, error) {
	rows, err := repo.LoadAmounts(ctx, memberIDColumn, check.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", check.source.schema.Table, err)
	}

	scan := &tableScan{
		source:  check.source,
		fields:  check.fields,
		records: len(rows),
		sums:    make(map[string]decimal.Decimal, len(check.fields)),
	}
	for _, row := range rows {
		values, err := parseRow(check.source.schema.Name, row, check.fields)
		if err != nil {
			return nil, err
		}
		for _, f := range check.fields {
			v := values[f]
			scan.sums[f] = scan.sums[f].Add(v)
			scan.total = scan.total.Add(v)
			if rate.IsPositive() {
				scan.converted = scan.converted.Add(convertAmount(v, rate))
			}
		}
	}
	return scan, nil
}

// parseRow turns the raw values of one row into decimals
func parseRow(dbName string, row repository.AmountRow, fields []string) (map[string]decimal.Decimal, error) {
	values := make(map[string]decimal.Decimal, len(fields))
	for _, f := range fields {
		v, err := repository.ParseAmount(row.Raw[f])
		if err != nil {
			return nil, &ValidationError{Database: dbName, MemberID: int(row.MemberID), Field: f, Reason: "value is not a finite number", Err: err}
		}
		if v.IsNegative() && nonNegativeFields[strings.ToUpper(f)] {
			return nil, &ValidationError{Database: dbName, MemberID: int(row.MemberID), Field: f, Reason: fmt.Sprintf("negative amount %s", v.StringFixed(2))}
		}
		values[f] = v
	}
	return values, nil
}

// checkIntegrity compares member ids with ledger activity against the registry
func checkIntegrity(ctx context.Context, store *storage.LocalStorage, sources []sourceDatabase) (*models.IntegrityReport, error) {
	var ledgerIDs, registryIDs []int
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		switch src.schema.Name {
		case database.LedgerSchema.Name:
			g.Go(func() error {
				db, err := database.Connect(store.GetFullPath(src.file), src.schema.Name, database.Options{ReadOnly: true})
				if err != nil {
					return err
				}
				defer database.Close(db)
				ledgerIDs, err = repository.NewLedgerRepository(db).MemberIDs(gctx)
				return err
			})
		case database.MembersSchema.Name:
			g.Go(func() error {
				db, err := database.Connect(store.GetFullPath(src.file), src.schema.Name, database.Options{ReadOnly: true})
				if err != nil {
					return err
				}
				defer database.Close(db)
				registryIDs, err = repository.NewMemberRepository(db).IDs(gctx)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compare member ids: %w", err)
	}
	return compareMemberIDs(ledgerIDs, registryIDs), nil
}

func compareMemberIDs(ledgerIDs, registryIDs []int) *models.IntegrityReport {
	inLedger := make(map[int]bool, len(ledgerIDs))
	for _, id := range ledgerIDs {
		inLedger[id] = true
	}
	inRegistry := make(map[int]bool, len(registryIDs))
	for _, id := range registryIDs {
		inRegistry[id] = true
	}

	report := &models.IntegrityReport{
		RegistryCount:  len(inRegistry),
		LedgerCount:    len(inLedger),
		OnlyInRegistry: []int{},
		OnlyInLedger:   []int{},
	}
	for id := range inRegistry {
		if !inLedger[id] {
			report.OnlyInRegistry = append(report.OnlyInRegistry, id)
		}
	}
	for id := range inLedger {
		if !inRegistry[id] {
			report.OnlyInLedger = append(report.OnlyInLedger, id)
		}
	}
	sort.Ints(report.OnlyInRegistry)
	sort.Ints(report.OnlyInLedger)
	return report
}

// convertAmount is the per-value conversion, half-up at 2 decimals
func convertAmount(ron, rate decimal.Decimal) decimal.Decimal {
	return ron.DivRound(rate, 2)
}

func validateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(10)) {
		return ErrInvalidRate
	}
	return nil
}
