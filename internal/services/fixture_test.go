package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sjperalta/car-ledger-api/internal/config"
	"github.com/sjperalta/car-ledger-api/internal/database"
	"github.com/sjperalta/car-ledger-api/internal/repository"
	"github.com/sjperalta/car-ledger-api/internal/storage"
)

// fixture is a data directory holding the five legacy databases
type fixture struct {
	cfg   *config.Config
	dbs   *database.Set
	store *storage.LocalStorage
	repos *repository.Repositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Environment:      "test",
		DataDir:          dir,
		ExportDir:        t.TempDir(),
		Files:            config.DefaultDatabaseFiles(),
		StatusFile:       "conversion_status.json",
		LockTimeout:      150 * time.Millisecond,
		LockRetryDelay:   20 * time.Millisecond,
		WorkerCount:      1,
		HistoryCacheSize: 16,
	}

	dbs, err := database.OpenSet(cfg)
	require.NoError(t, err)
	t.Cleanup(dbs.Close)

	store, err := storage.NewLocalStorage(cfg.DataDir, cfg.ExportDir)
	require.NoError(t, err)

	return &fixture{cfg: cfg, dbs: dbs, store: store, repos: repository.NewRepositories(dbs)}
}

func (f *fixture) addMember(t *testing.T, id int, name, contribution string) {
	t.Helper()
	require.NoError(t, f.dbs.Members.Exec(
		"INSERT INTO MEMBRII (NR_FISA, NUM_PREN, DOMICILIUL, CALITATEA, DATA_INSCR, COTIZATIE_STANDARD) VALUES (?, ?, '', 'M', '01-01-2010', ?)",
		id, name, contribution,
	).Error)
}

// ledgerMonth is one DEPCRED row in test notation
type ledgerMonth struct {
	member, year, month               int
	interest, disbursed, repaid, loan string
	contribution, withdrawal, deposit string
}

func (f *fixture) addMonths(t *testing.T, months ...ledgerMonth) {
	t.Helper()
	for _, m := range months {
		require.NoError(t, f.dbs.Ledger.Exec(
			"INSERT INTO DEPCRED (NR_FISA, LUNA, ANUL, DOBANDA, IMPR_DEB, IMPR_CRED, IMPR_SOLD, DEP_DEB, DEP_CRED, DEP_SOLD) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			m.member, m.month, m.year,
			orZero(m.interest), orZero(m.disbursed), orZero(m.repaid), orZero(m.loan),
			orZero(m.contribution), orZero(m.withdrawal), orZero(m.deposit),
		).Error)
	}
}

func (f *fixture) liquidate(t *testing.T, id int, date string) {
	t.Helper()
	require.NoError(t, f.dbs.Liquidated.Exec("INSERT INTO lichidati (nr_fisa, data_lichidare) VALUES (?, ?)", id, date).Error)
}

// openEUR opens a published clone for assertions
func (f *fixture) openEUR(t *testing.T, file string) *gorm.DB {
	t.Helper()
	db, err := database.Connect(f.cfg.Path(file), file, database.Options{ReadOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

type stubGuard bool

func (g stubGuard) InProgress() bool { return bool(g) }

func (g stubGuard) HoldForEdit() (func(), error) {
	if g {
		return nil, ErrConversionInProgress
	}
	return func() {}, nil
}
