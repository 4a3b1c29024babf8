package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

// Execer is satisfied by both *sql.DB and *sql.Tx so every query
// helper in this package can run standalone or inside a transaction.
type Execer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func Make(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1")
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		pragma journal_mode = WAL;
		pragma synchronous = normal;
		pragma temp_store = memory;
		pragma busy_timeout = 5000;

		create table if not exists invites (
			id integer primary key autoincrement,
			code text not null unique,
			inviter_id integer not null,
			invitee_name text,
			entity_type text not null check (entity_type in ('human', 'bot')),
			relationship_type text not null,
			notes text,
			created_at text not null,
			expires_at text,
			-- used_at and used_by_id are both null or both set; the
			-- conditional update in ConsumeInvite is the only writer
			used_at text,
			used_by_id integer
		);

		create table if not exists attestations (
			id integer primary key autoincrement,
			subject_id integer not null,
			attester_id integer not null,
			attestation_type text not null,
			body text not null,
			created_at text not null,
			unique (subject_id, attester_id),
			check (subject_id <> attester_id)
		);

		create table if not exists users (
			id integer primary key autoincrement,
			name text not null unique,
			kind text not null default 'member' check (kind in ('member', 'system')),
			entity_type text not null default 'human' check (entity_type in ('human', 'bot')),
			created_at text not null
		);

		create table if not exists pages (
			path text primary key,
			content text not null,
			author_id integer not null,
			created_at text not null
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Timestamps are stored as RFC3339 UTC strings written from Go, never
// from SQL now(), so callers with an injected clock stay consistent.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) *time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}

type filter struct {
	key string
	cmp string
	arg any
}

func FilterEq(key string, arg any) filter  { return filter{key, "=", arg} }
func FilterIs(key string, arg any) filter  { return filter{key, "is", arg} }
func FilterGte(key string, arg any) filter { return filter{key, ">=", arg} }
func FilterLte(key string, arg any) filter { return filter{key, "<=", arg} }

func (f filter) Condition() string {
	return fmt.Sprintf("%s %s ?", f.key, f.cmp)
}

func (f filter) Arg() any {
	return f.arg
}

func whereClause(filters []filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	var conditions []string
	var args []any
	for _, f := range filters {
		conditions = append(conditions, f.Condition())
		args = append(args, f.Arg())
	}
	return " where " + strings.Join(conditions, " and "), args
}
