package database

import (
	"embed"
	"fmt"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sjperalta/car-ledger-api/internal/config"
	pkgLogger "github.com/sjperalta/car-ledger-api/pkg/logger"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Schema describes one legacy database file and its primary table
type Schema struct {
	Name     string
	Table    string
	DDL      string
	Required []string
	Monetary []string
}

// Schemas of the five legacy databases, keyed by role
var (
	LedgerSchema = Schema{
		Name:     "DEPCRED",
		Table:    "DEPCRED",
		DDL:      "schema/depcred.sql",
		Required: []string{"NR_FISA", "LUNA", "ANUL", "DOBANDA", "IMPR_DEB", "IMPR_CRED", "IMPR_SOLD", "DEP_DEB", "DEP_CRED", "DEP_SOLD"},
		Monetary: []string{"DOBANDA", "IMPR_DEB", "IMPR_CRED", "IMPR_SOLD", "DEP_DEB", "DEP_CRED", "DEP_SOLD"},
	}
	MembersSchema = Schema{
		Name:     "MEMBRII",
		Table:    "MEMBRII",
		DDL:      "schema/membrii.sql",
		Required: []string{"NR_FISA", "NUM_PREN", "COTIZATIE_STANDARD"},
		Monetary: []string{"COTIZATIE_STANDARD"},
	}
	ActiveSchema = Schema{
		Name:     "ACTIVI",
		Table:    "ACTIVI",
		DDL:      "schema/activi.sql",
		Required: []string{"NR_FISA", "NUM_PREN", "DEP_SOLD", "DIVIDEND"},
		Monetary: []string{"DEP_SOLD", "DIVIDEND", "BENEFICIU"},
	}
	InactiveSchema = Schema{
		Name:     "INACTIVI",
		Table:    "inactivi",
		DDL:      "schema/inactivi.sql",
		Required: []string{"nr_fisa", "num_pren", "lipsa_luni"},
	}
	LiquidatedSchema = Schema{
		Name:     "LICHIDATI",
		Table:    "lichidati",
		DDL:      "schema/lichidati.sql",
		Required: []string{"nr_fisa", "data_lichidare"},
	}
)

// Options tune a single SQLite connection
type Options struct {
	ReadOnly bool
	LogLevel logger.LogLevel
}

// DefaultOptions logs SQL only outside production
func DefaultOptions(environment string) Options {
	level := logger.Warn
	if environment == "development" {
		level = logger.Info
	}
	return Options{LogLevel: level}
}

// Connect opens one legacy SQLite file through gorm
func Connect(path, name string, opts Options) (*gorm.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(0)"
	if opts.ReadOnly {
		dsn = "file:" + path + "?mode=ro&_pragma=busy_timeout(5000)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 pkgLogger.NewGormLogger(name, opts.LogLevel, 200*time.Millisecond),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite allows a single writer per file
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database %s: %w", name, err)
	}

	return db, nil
}

// EnsureSchema creates the table when the file is new. Existing legacy tables
// are never altered.
func EnsureSchema(db *gorm.DB, schema Schema) error {
	ddl, err := schemaFS.ReadFile(schema.DDL)
	if err != nil {
		return fmt.Errorf("failed to read schema for %s: %w", schema.Name, err)
	}
	if err := db.Exec(string(ddl)).Error; err != nil {
		return fmt.Errorf("failed to create table %s: %w", schema.Table, err)
	}
	return nil
}

// Close releases the connection pool behind db
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Set holds one connection per legacy database
type Set struct {
	Ledger     *gorm.DB
	Members    *gorm.DB
	Active     *gorm.DB
	Inactive   *gorm.DB
	Liquidated *gorm.DB
}

// OpenSet opens the five databases of cfg.DataDir, creating missing ones
func OpenSet(cfg *config.Config) (*Set, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	opts := DefaultOptions(cfg.Environment)
	set := &Set{}
	targets := []struct {
		dst    **gorm.DB
		file   string
		schema Schema
	}{
		{&set.Ledger, cfg.Files.Ledger, LedgerSchema},
		{&set.Members, cfg.Files.Members, MembersSchema},
		{&set.Active, cfg.Files.Active, ActiveSchema},
		{&set.Inactive, cfg.Files.Inactive, InactiveSchema},
		{&set.Liquidated, cfg.Files.Liquidated, LiquidatedSchema},
	}

	for _, t := range targets {
		db, err := Connect(cfg.Path(t.file), t.schema.Name, opts)
		if err != nil {
			set.Close()
			return nil, err
		}
		*t.dst = db
		if err := EnsureSchema(db, t.schema); err != nil {
			set.Close()
			return nil, err
		}
	}

	return set, nil
}

// Close closes every open connection
func (s *Set) Close() {
	for _, db := range []*gorm.DB{s.Ledger, s.Members, s.Active, s.Inactive, s.Liquidated} {
		if err := Close(db); err != nil {
			pkgLogger.Warn("Failed to close database", "error", err)
		}
	}
}
