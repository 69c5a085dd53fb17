// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package database provides the SQLite layer shared by all stores.
//
// WRITES:
//
// Every INSERT/UPDATE/DELETE issued through ExecContext is funnelled through a
// single writer goroutine that owns a dedicated connection. Reads go through
// the regular pool and can run concurrently thanks to WAL mode.
//
// MAINTENANCE:
//
// A background loop prunes pending releases that have not been re-offered
// within the retention window and runs PRAGMA optimize.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"

	"github.com/autobrr/gamarr/internal/dbinterface"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	busyTimeout             = 5 * time.Second
	setupTimeout            = 5 * time.Second
	writeQueueSize          = 256
	defaultPendingRetention = 14 * 24 * time.Hour
	maintenanceInterval     = 24 * time.Hour
	maintenanceTimeout      = 5 * time.Minute
	stmtTTL                 = 5 * time.Minute
)

var errStopping = errors.New("database is stopping")

// connectionPragmas run on every new connection, including the ones the
// pool opens later.
var connectionPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
}

type pendingWrite struct {
	ctx   context.Context
	query string
	args  []any
	done  chan writeOutcome
}

type writeOutcome struct {
	result sql.Result
	err    error
}

type DB struct {
	pool   *sql.DB
	writer *sql.Conn
	writes chan pendingWrite
	stmts  *ttlcache.Cache[string, *sql.Stmt]

	pendingRetention   time.Duration
	maintenanceRunning atomic.Bool

	stop      chan struct{}
	closeOnce sync.Once
	loops     sync.WaitGroup
	closing   atomic.Bool
	closeErr  error
}

// Tx wraps sql.Tx so transaction queries reuse cached prepared statements.
type Tx struct {
	tx *sql.Tx
	db *DB
}

// bind returns the cached statement bound to the transaction, or nil when
// the query could not be prepared and has to run as plain text.
func (t *Tx) bind(ctx context.Context, query string) *sql.Stmt {
	stmt, err := t.db.getStmt(ctx, query)
	if err != nil {
		return nil
	}
	return t.tx.StmtContext(ctx, stmt)
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	stmt := t.bind(ctx, query)
	if stmt == nil {
		return t.tx.ExecContext(ctx, query, args...)
	}
	defer stmt.Close()
	return stmt.ExecContext(ctx, args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	stmt := t.bind(ctx, query)
	if stmt == nil {
		return t.tx.QueryContext(ctx, query, args...)
	}
	defer stmt.Close()
	return stmt.QueryContext(ctx, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	stmt := t.bind(ctx, query)
	if stmt == nil {
		return t.tx.QueryRowContext(ctx, query, args...)
	}
	defer stmt.Close()
	return stmt.QueryRowContext(ctx, args...)
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

var registerHook sync.Once

func applyPragmas(ctx context.Context, exec func(ctx context.Context, pragma string) error) error {
	for _, pragma := range connectionPragmas {
		if err := exec(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func installConnectionHook() {
	registerHook.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
			ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
			defer cancel()
			return applyPragmas(ctx, func(ctx context.Context, pragma string) error {
				_, err := conn.ExecContext(ctx, pragma, nil)
				return err
			})
		})
	})
}

func newStmtCache() *ttlcache.Cache[string, *sql.Stmt] {
	opts := ttlcache.Options[string, *sql.Stmt]{}.SetDefaultTTL(stmtTTL).
		SetDeallocationFunc(func(_ string, stmt *sql.Stmt, _ ttlcache.DeallocationReason) {
			if stmt != nil {
				_ = stmt.Close()
			}
		})
	return ttlcache.New(opts)
}

// New opens (or creates) the database, migrates it and starts the writer
// and maintenance loops.
func New(databasePath string) (*DB, error) {
	log.Info().Str("path", databasePath).Msg("[DATABASE] Opening database")

	if err := os.MkdirAll(filepath.Dir(databasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	installConnectionHook()

	pool, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", databasePath, err)
	}

	db := &DB{
		pool:             pool,
		writes:           make(chan pendingWrite, writeQueueSize),
		stmts:            newStmtCache(),
		pendingRetention: defaultPendingRetention,
		stop:             make(chan struct{}),
	}

	if err := db.prepare(); err != nil {
		pool.Close()
		return nil, err
	}

	db.loops.Add(2)
	go db.writerLoop()
	go db.maintenanceLoop()

	log.Info().Str("path", databasePath).Msg("[DATABASE] Database ready")
	return db, nil
}

// prepare migrates on a single connection, then opens the pool up for
// readers and pins the connection every write goes through.
func (db *DB) prepare() error {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	db.pool.SetMaxOpenConns(1)
	db.pool.SetMaxIdleConns(1)

	err := applyPragmas(ctx, func(ctx context.Context, pragma string) error {
		_, err := db.pool.ExecContext(ctx, pragma)
		return err
	})
	if err != nil {
		return fmt.Errorf("apply pragmas: %w", err)
	}
	if err := db.migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	db.pool.SetMaxOpenConns(0)
	db.pool.SetMaxIdleConns(2)

	writer, err := db.pool.Conn(ctx)
	if err != nil {
		return fmt.Errorf("reserve write connection: %w", err)
	}
	db.writer = writer
	return nil
}

// getStmt returns a cached prepared statement, preparing it on a miss.
// Statements are closed when the cache evicts them.
func (db *DB) getStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if s, found := db.stmts.Get(query); found && s != nil {
		return s, nil
	}

	s, err := db.pool.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	db.stmts.Set(query, s, ttlcache.DefaultTTL)
	return s, nil
}

var writeVerbs = []string{"INSERT", "UPDATE", "UPSERT", "REPLACE", "DELETE"}

func isWriteQuery(query string) bool {
	q := strings.TrimLeftFunc(query, unicode.IsSpace)
	if i := strings.IndexFunc(q, unicode.IsSpace); i >= 0 {
		q = q[:i]
	}
	return slices.ContainsFunc(writeVerbs, func(verb string) bool {
		return strings.EqualFold(q, verb)
	})
}

// ExecContext runs reads directly and queues writes for the writer loop.
// RETURNING queries belong in QueryRowContext.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if !isWriteQuery(query) {
		if stmt, err := db.getStmt(ctx, query); err == nil {
			return stmt.ExecContext(ctx, args...)
		}
		return db.pool.ExecContext(ctx, query, args...)
	}

	if db.closing.Load() {
		return nil, errStopping
	}

	w := pendingWrite{ctx: ctx, query: query, args: args, done: make(chan writeOutcome, 1)}
	select {
	case db.writes <- w:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-db.stop:
		return nil, errStopping
	}

	out := <-w.done
	return out.result, out.err
}

func (db *DB) writerLoop() {
	defer db.loops.Done()

	for {
		select {
		case w := <-db.writes:
			db.write(w)
		case <-db.stop:
			for {
				select {
				case w := <-db.writes:
					db.write(w)
				default:
					return
				}
			}
		}
	}
}

func (db *DB) write(w pendingWrite) {
	writesTotal.Add(1)

	var out writeOutcome
	if stmt, err := db.getStmt(w.ctx, w.query); err == nil {
		out.result, out.err = stmt.ExecContext(w.ctx, w.args...)
	} else {
		out.result, out.err = db.writer.ExecContext(w.ctx, w.query, w.args...)
	}
	w.done <- out
}

func (db *DB) maintenanceLoop() {
	defer db.loops.Done()

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	initialDelay := time.NewTimer(time.Hour)
	defer initialDelay.Stop()

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()

		if deleted, err := db.RunMaintenance(ctx); err != nil {
			log.Warn().Err(err).Msg("[DATABASE] Maintenance failed")
		} else if deleted > 0 {
			log.Debug().Int64("deleted", deleted).Msg("[DATABASE] Pruned stale pending releases")
		}
	}

	for {
		select {
		case <-initialDelay.C:
			run()
		case <-ticker.C:
			run()
		case <-db.stop:
			return
		}
	}
}

// RunMaintenance prunes stale pending releases and refreshes query planner
// statistics. Overlapping calls return immediately with (0, nil).
func (db *DB) RunMaintenance(ctx context.Context) (int64, error) {
	if !db.maintenanceRunning.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer db.maintenanceRunning.Store(false)

	cutoff := time.Now().UTC().Add(-db.pendingRetention)
	res, err := db.ExecContext(ctx, "DELETE FROM pending_releases WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune pending releases: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	maintenanceDeletedTotal.Add(uint64(deleted))

	if _, err := db.pool.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		log.Warn().Err(err).Msg("[DATABASE] PRAGMA optimize failed")
	}

	return deleted, nil
}

// SetPendingRetention overrides how long pending releases are kept.
func (db *DB) SetPendingRetention(d time.Duration) {
	if d > 0 {
		db.pendingRetention = d
	}
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return db.pool.QueryContext(ctx, query, args...)
	}
	return stmt.QueryContext(ctx, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return db.pool.QueryRowContext(ctx, query, args...)
	}
	return stmt.QueryRowContext(ctx, args...)
}

// BeginTx starts a transaction. Read-only transactions use the pool; write
// transactions use the dedicated write connection and are serialized with
// every other write.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (dbinterface.TxQuerier, error) {
	var (
		tx  *sql.Tx
		err error
	)
	if opts != nil && opts.ReadOnly {
		tx, err = db.pool.BeginTx(ctx, opts)
	} else {
		tx, err = db.writer.BeginTx(ctx, opts)
	}
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		if _, err := db.pool.ExecContext(ctx, "PRAGMA optimize"); err != nil {
			log.Warn().Err(err).Msg("[DATABASE] PRAGMA optimize failed on close")
		}

		db.closing.Store(true)
		close(db.stop)
		db.loops.Wait()

		db.stmts.Close()

		if db.writer != nil {
			if err := db.writer.Close(); err != nil {
				log.Warn().Err(err).Msg("[DATABASE] Failed to close write connection")
			}
		}

		db.closeErr = db.pool.Close()
	})

	return db.closeErr
}

func (db *DB) Conn() *sql.DB {
	return db.pool
}

// migrate applies every embedded migration not yet recorded, in file name
// order and inside one transaction.
func (db *DB) migrate() error {
	ctx := context.Background()

	if _, err := db.pool.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(files)

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	tx, err := db.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrations: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, file := range files {
		name := path.Base(file)
		if _, ok := applied[name]; ok {
			continue
		}

		content, err := migrationsFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		count++
	}

	if count == 0 {
		log.Debug().Msg("[DATABASE] Schema up to date")
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}

	log.Info().Int("migrations", count).Msg("[DATABASE] Migrations applied")
	return nil
}

func (db *DB) appliedMigrations(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.pool.QueryContext(ctx, "SELECT name FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = struct{}{}
	}
	return applied, rows.Err()
}
