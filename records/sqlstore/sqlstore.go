// Package sqlstore implements the record repository, the mailbox and the
// conversation memory on database/sql. SQLite (modernc.org/sqlite, pure Go)
// is the default driver; PostgreSQL is reached through pgx's database/sql
// adapter with the same queries.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver "pgx"
	_ "modernc.org/sqlite"             // pure-Go SQLite driver "sqlite"

	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
	"github.com/good-jinu/finance-operating-automation-sub000/memory"
	"github.com/good-jinu/finance-operating-automation-sub000/records"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a structured logger for the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a SQL-backed repository. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	q      querier
	inTx   bool
	driver string
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ records.Repository = (*Store)(nil)
	_ mailbox.Inbox      = (*Store)(nil)
	_ mailbox.Outbox     = (*Store)(nil)
	_ memory.Store       = (*Store)(nil)
)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Open connects to dsn with the named driver.
// SQLite uses a single connection so writers serialize instead of failing
// with SQLITE_BUSY.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, q: db, driver: driver, logger: nopLogger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlstore: opened", "driver", driver)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	start := time.Now()
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id ` + pk + `,
			name TEXT NOT NULL UNIQUE,
			business_number TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS authorized_persons (
			id ` + pk + `,
			company_id BIGINT NOT NULL REFERENCES companies(id),
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			position TEXT NOT NULL DEFAULT '',
			can_sign INTEGER NOT NULL DEFAULT 0,
			can_approve_payment INTEGER NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payment_accounts (
			id ` + pk + `,
			company_id BIGINT NOT NULL REFERENCES companies(id),
			bank_name TEXT NOT NULL,
			account_number TEXT NOT NULL,
			account_holder TEXT NOT NULL,
			purpose TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS official_seals (
			id ` + pk + `,
			company_id BIGINT NOT NULL REFERENCES companies(id),
			seal_image_path TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mails (
			id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL DEFAULT '',
			sender TEXT NOT NULL,
			subject TEXT NOT NULL,
			body TEXT NOT NULL,
			unread INTEGER NOT NULL DEFAULT 1,
			attachments TEXT NOT NULL DEFAULT '[]',
			received_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reply_mails (
			id TEXT PRIMARY KEY,
			mail_id TEXT NOT NULL REFERENCES mails(id),
			subject TEXT NOT NULL,
			body TEXT NOT NULL,
			html TEXT NOT NULL DEFAULT '',
			attachments TEXT NOT NULL DEFAULT '[]',
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			seq ` + pk + `,
			id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT NOT NULL DEFAULT '',
			tool_results TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_persons_company ON authorized_persons(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_company ON payment_accounts(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_seals_company ON official_seals(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_replies_mail ON reply_mails(mail_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_session ON chat_messages(session_id, seq)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	s.logger.Debug("sqlstore: migrated", "duration", time.Since(start))
	return nil
}

// InTx runs fn inside a database transaction. Calls made through the tx
// repository commit together; an error from fn rolls back.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx records.Repository) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	scoped := *s
	scoped.q = tx
	scoped.inTx = true

	if err := fn(ctx, &scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("sqlstore: rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
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

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id statement.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// setter accumulates SET clauses of a partial update.
type setter struct {
	cols []string
	args []any
}

func (u *setter) str(col string, v *string) {
	if v != nil {
		u.cols = append(u.cols, col+" = ?")
		u.args = append(u.args, *v)
	}
}

func (u *setter) boolean(col string, v *bool) {
	if v != nil {
		u.cols = append(u.cols, col+" = ?")
		u.args = append(u.args, boolToInt(*v))
	}
}

// update applies the accumulated SET clauses to the row with id.
func (s *Store) update(ctx context.Context, table string, id int64, u *setter) (bool, error) {
	if len(u.cols) == 0 {
		return false, nil
	}
	cols := append(u.cols, "updated_at = ?")
	args := append(u.args, millis(s.now()), id)
	res, err := s.exec(ctx, "UPDATE "+table+" SET "+strings.Join(cols, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("sqlstore: update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore: update %s: %w", table, err)
	}
	s.logger.Debug("sqlstore: updated", "table", table, "id", id, "rows", n)
	return n > 0, nil
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms) }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return records.ErrNotFound
	}
	return err
}
