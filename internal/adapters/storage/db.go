package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names a supported database/sql driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "pgx"
)

// sqlitePragmas are appended to file DSNs: WAL for concurrent readers, a busy
// timeout so writers queue instead of failing, and enforced foreign keys.
const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"

// Rebind rewrites ? placeholders to $1..$n for Postgres. Queries in this
// repository never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseDialect validates a configured driver name.
func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case DialectSQLite, DialectPostgres:
		return Dialect(driver), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects to the configured database and checks it is reachable.
// PRE: driver is sqlite or pgx
// POST: returns a pinged pool sized for the driver
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, "", err
	}

	memory := dialect == DialectSQLite && strings.Contains(dsn, ":memory:")
	if dialect == DialectSQLite && !memory && !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + sqlitePragmas
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	switch {
	case memory:
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	case dialect == DialectSQLite:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	default:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("database unreachable: %w", err)
	}
	return db, dialect, nil
}

// migration is one forward-only schema step. Statements must be valid in both
// SQLite and Postgres.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS account (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL,
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS report (
				id TEXT PRIMARY KEY,
				draft_id TEXT NOT NULL DEFAULT '',
				anchor TEXT NOT NULL,
				reference_sunday TEXT NOT NULL,
				window_days INTEGER NOT NULL,
				people INTEGER NOT NULL DEFAULT 0,
				never_attended INTEGER NOT NULL DEFAULT 0,
				has_ids INTEGER NOT NULL DEFAULT 0,
				finalized_at TEXT NOT NULL,
				finalized_by TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS report_week (
				report_id TEXT NOT NULL,
				label TEXT NOT NULL,
				position INTEGER NOT NULL,
				offset_weeks INTEGER NOT NULL,
				window_start TEXT NOT NULL,
				window_end TEXT NOT NULL,
				removed INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (report_id, label),
				FOREIGN KEY (report_id) REFERENCES report(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS report_entry (
				report_id TEXT NOT NULL,
				week_label TEXT NOT NULL,
				position INTEGER NOT NULL,
				entry_key TEXT NOT NULL,
				name TEXT NOT NULL,
				person_id TEXT NOT NULL DEFAULT '',
				last_attended TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (report_id, week_label, entry_key),
				FOREIGN KEY (report_id, week_label) REFERENCES report_week(report_id, label) ON DELETE CASCADE
			)`,
		},
	},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied version, 0 for an unmigrated database.
// PRE: db is reachable
// POST: creates the schema_version table when missing
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateDB applies every migration newer than the recorded version, each in
// its own transaction.
// PRE: db is reachable; dialect matches the driver db was opened with
// POST: SchemaVersion == LatestSchemaVersion
// INVARIANT: running it again is a no-op
func MigrateDB(ctx context.Context, db *sql.DB, dialect Dialect) error {
	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, dialect, m); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, dialect Dialect, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, dialect.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), m.version); err != nil {
		return err
	}
	return tx.Commit()
}
