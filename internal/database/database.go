package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations
var migrations embed.FS

// Dialect identifies the SQL flavour spoken by the underlying driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DBTX is the subset of database/sql used by the stores.
// Both *DB and *Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a connection pool and rewrites `?` placeholders for the dialect.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Tx is a transaction that rewrites placeholders like DB does.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// New creates a new database connection pool.
func New(ctx context.Context, dialect Dialect, dataSourceName string) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case SQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dataSourceName))
		if err != nil {
			return nil, err
		}
	case Postgres:
		db, err = sql.Open("pgx", dataSourceName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, dialect: dialect}, nil
}

// sqliteDSN makes writers wait for the lock instead of failing with
// SQLITE_BUSY and takes it at BEGIN so transactions never need an upgrade.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_txlock=immediate"
}

// Dialect reports the SQL dialect of the pool.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Migrate applies all pending schema migrations for the pool's dialect.
func Migrate(ctx context.Context, db *DB) error {
	var gooseDialect goose.Dialect
	switch db.dialect {
	case SQLite:
		gooseDialect = goose.DialectSQLite3
	case Postgres:
		gooseDialect = goose.DialectPostgres
	default:
		return fmt.Errorf("unsupported dialect %q", db.dialect)
	}

	fsys, err := fs.Sub(migrations, "migrations/"+string(db.dialect))
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(gooseDialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, Rebind(db.dialect, query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, Rebind(db.dialect, query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, Rebind(db.dialect, query), args...)
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.tx.ExecContext(ctx, Rebind(tx.dialect, query), args...)
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.tx.QueryContext(ctx, Rebind(tx.dialect, query), args...)
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.tx.QueryRowContext(ctx, Rebind(tx.dialect, query), args...)
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
func WithTx(ctx context.Context, db *DB, fn func(ctx context.Context, tx DBTX) error) (err error) {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		err = sqlTx.Commit()
	}()

	err = fn(ctx, &Tx{tx: sqlTx, dialect: db.dialect})
	return err
}

// Rebind rewrites `?` placeholders into `$1, $2, ...` for PostgreSQL.
// Queries must not contain literal question marks.
func Rebind(dialect Dialect, query string) string {
	if dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// IsUniqueViolation reports whether err was raised by a UNIQUE or PRIMARY KEY
// constraint in either supported driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
