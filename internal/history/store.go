// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists one audit record per search. SQLite is the
// default backend; a postgres:// URL selects PostgreSQL.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docsearch/pkg/types"
)

const (
	defaultName  = "docsearch"
	defaultLimit = 10
	maxLimit     = 1000
)

// Store reads and writes the search_history table.
type Store struct {
	db       *sql.DB
	driver   string
	location string
}

// Open connects to the store described by cfg and creates the schema if it
// does not exist. An empty URL means a SQLite file in the working directory.
func Open(ctx context.Context, cfg types.DatabaseConfig) (*Store, error) {
	driver, dsn, location, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == "sqlite3" {
		// SQLite serializes writers; one connection avoids "database is locked".
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver, location: location}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// resolve maps the configuration onto a driver name and DSN. location is
// the redacted form reported by Location.
func resolve(cfg types.DatabaseConfig) (driver, dsn, location string, err error) {
	raw := strings.TrimSpace(cfg.URL)
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = defaultName
	}

	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", "", fmt.Errorf("parsing database url: %w", err)
		}
		u.User = nil
		return "postgres", raw, u.String(), nil
	}

	path := strings.TrimPrefix(raw, "sqlite://")
	if path == "" {
		path = "."
	}
	if filepath.Ext(path) != ".db" {
		path = filepath.Join(path, name+".db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", "", fmt.Errorf("creating database directory: %w", err)
	}
	return "sqlite3", path + "?_journal_mode=WAL&_busy_timeout=5000", path, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver names the database/sql driver in use ("sqlite3" or "postgres").
func (s *Store) Driver() string { return s.driver }

// Location is the database file path or the credential-free server URL.
func (s *Store) Location() string { return s.location }

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS search_history (
			id TEXT PRIMARY KEY,
			original_query TEXT NOT NULL,
			reformulated_query TEXT,
			results_count INTEGER NOT NULL,
			sources_used TEXT,
			created_at BIGINT NOT NULL,
			search_time DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_history_created_at ON search_history(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends rec. A zero timestamp is replaced with the current time.
func (s *Store) Record(ctx context.Context, rec types.SearchHistoryRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("history record has no id")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	sources := rec.SourcesUsed
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO search_history
			(id, original_query, reformulated_query, results_count, sources_used, created_at, search_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.OriginalQuery, rec.ReformulatedQuery, rec.ResultsCount,
		string(sourcesJSON), rec.Timestamp.UnixNano(), rec.SearchTime,
	)
	if err != nil {
		return fmt.Errorf("inserting history record %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit
// means 10.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.SearchHistoryRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, original_query, reformulated_query, results_count, sources_used, created_at, search_time
		FROM search_history
		ORDER BY created_at DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	records := []types.SearchHistoryRecord{}
	for rows.Next() {
		var (
			rec         types.SearchHistoryRecord
			reformed    sql.NullString
			sourcesJSON sql.NullString
			createdAt   int64
			searchTime  sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.OriginalQuery, &reformed, &rec.ResultsCount,
			&sourcesJSON, &createdAt, &searchTime); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.ReformulatedQuery = reformed.String
		rec.SearchTime = searchTime.Float64
		rec.Timestamp = time.Unix(0, createdAt).UTC()
		rec.SourcesUsed = []string{}
		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &rec.SourcesUsed); err != nil {
				return nil, fmt.Errorf("decoding sources of %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
