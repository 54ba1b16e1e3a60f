package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"gastos/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// The migration ladder. Databases written by older application versions
// predate the ladder entirely and are stamped with the version matching
// their observed shape before Up() runs.
const (
	versionLegacy      = 1 // month-name + day columns
	versionDated       = 2 // single YYYY-MM-DD date column
	versionCategorized = 3 // date + category_id
)

// ensureSchema brings the database to the current shape. It is idempotent:
// once the schema is current, repeated calls are no-ops. A failed upgrade
// is rolled back by the driver's per-migration transaction and reported as
// storage.ErrMigrationFailure; the next startup retries it.
func ensureSchema(dbPath string) error {
	// Separate connection for migrations to avoid interfering with the
	// main connection
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	switch {
	case err == migrate.ErrNilVersion:
		// No recorded version. Either a fresh database, or one written
		// by an application version that predates the ladder.
		stamp, found, derr := detectUnversionedSchema(migrateDB)
		if derr != nil {
			return fmt.Errorf("inspect existing schema: %w", derr)
		}
		if found {
			slog.Info("Stamping unversioned database", "version", stamp)
			if err := m.Force(stamp); err != nil {
				return fmt.Errorf("stamp schema version %d: %w", stamp, err)
			}
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case dirty:
		// A previous upgrade was interrupted. The failed migration was
		// rolled back by its transaction, so the recorded version never
		// took effect; step back to the last clean one and retry.
		slog.Warn("Recovering from interrupted migration", "version", version)
		if err := m.Force(cleanVersionBefore(version)); err != nil {
			return fmt.Errorf("reset dirty schema version: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		if v, d, verr := m.Version(); verr == nil && d {
			_ = m.Force(cleanVersionBefore(v))
		}
		return fmt.Errorf("%w: %v", storage.ErrMigrationFailure, err)
	}

	return nil
}

// detectUnversionedSchema maps the shape of a pre-ladder expenses table to
// the ladder version it corresponds to. found is false for a fresh
// database with no expenses table.
func detectUnversionedSchema(db *sql.DB) (stamp int, found bool, err error) {
	cols, err := tableColumns(db, "expenses")
	if err != nil {
		return 0, false, err
	}
	if len(cols) == 0 {
		return 0, false, nil
	}
	switch {
	case cols["month"]:
		return versionLegacy, true, nil
	case cols["category_id"]:
		return versionCategorized, true, nil
	case cols["date"]:
		return versionDated, true, nil
	default:
		return versionLegacy, true, nil
	}
}

// cleanVersionBefore returns the last version known to have fully applied
// before v, or -1 (no version) when v is the first rung of the ladder.
func cleanVersionBefore(v uint) int {
	if v <= versionLegacy {
		return -1
	}
	return int(v) - 1
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid      int
			name     string
			ctype    string
			notNull  int
			dfltVal  sql.NullString
			primaryK int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltVal, &primaryK); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// seedCategories makes sure the recognised category set exists with fixed
// ids in a fixed order, so category display order is deterministic. The
// seed is upsert-only: categories created lazily from typed-in names are
// never deleted.
func seedCategories(db *sql.DB) error {
	_, err := db.Exec(`
		INSERT INTO categories (id, name) VALUES
			(1, 'Food'),
			(2, 'Utilities'),
			(3, 'Necessities'),
			(4, 'Transportation')
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}
