// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package inventory exports fetched domain records into a PostgreSQL table over a pgx
// connection pool. Rows are keyed by the domain's root group id and upserted, so exporting
// the same folder twice refreshes the table instead of duplicating it.
//
// Key features include:
//   - Schema-qualified table names ("inventory.domains" or plain "domains")
//   - Table creation on first export, with a column check against information_schema
//   - Batched upserts inside one transaction
//   - Attribute maps stored as jsonb
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"firefly/cli/internal/browser"
)

// DefaultTable is used when no table is configured.
const DefaultTable = "firefly_domains"

// columns lists the export columns in insert order.
var columns = []string{"root", "name", "class", "owner", "created", "last_modified", "attributes", "exported_at"}

// Result summarizes one export.
type Result struct {
	Table    string `json:"table"`
	Rows     int64  `json:"rows"`
	Enriched int    `json:"enriched"`
}

// Exporter writes records into one table.
type Exporter struct {
	// Pool is the PostgreSQL connection pool
	Pool *pgxpool.Pool
	// table is the sanitized, possibly schema-qualified table name
	table string
	// schema and name are the unquoted parts of the table name
	schema, name string
	// now stamps exported_at; replaced in tests
	now func() time.Time
}

// ParseDSN validates a PostgreSQL connection string without connecting.
func ParseDSN(dsn string) (*pgxpool.Config, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty database DSN")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}
	return cfg, nil
}

// Connect opens a pool for dsn and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New creates an Exporter for table, which may be "table" or "schema.table".
func New(pool *pgxpool.Pool, table string) (*Exporter, error) {
	schema, name, err := parseTableName(table)
	if err != nil {
		return nil, err
	}
	return &Exporter{
		Pool:   pool,
		table:  pgx.Identifier{schema, name}.Sanitize(),
		schema: schema,
		name:   name,
		now:    time.Now,
	}, nil
}

// Table returns the sanitized table name.
func (e *Exporter) Table() string { return e.table }

// Export upserts records in a single transaction, creating the table if needed.
func (e *Exporter) Export(ctx context.Context, records []browser.Record) (Result, error) {
	res := Result{Table: e.schema + "." + e.name}

	conn, err := e.Pool.Acquire(ctx)
	if err != nil {
		return res, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if commit doesn't happen

	if _, err := tx.Exec(ctx, createTableSQL(e.table)); err != nil {
		return res, fmt.Errorf("create table %s: %w", res.Table, err)
	}
	if err := e.checkColumns(ctx, tx); err != nil {
		return res, err
	}

	stamp := e.now().UTC()
	batch := &pgx.Batch{}
	query := upsertSQL(e.table)
	for _, rec := range records {
		args, err := rowArgs(rec, stamp)
		if err != nil {
			return res, err
		}
		batch.Queue(query, args...)
		if rec.Enriched() {
			res.Enriched++
		}
	}

	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			ct, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return res, fmt.Errorf("upsert %s: %w", records[i].Name, err)
			}
			res.Rows += ct.RowsAffected()
		}
		if err := br.Close(); err != nil {
			return res, fmt.Errorf("close batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit failed: %w", err)
	}
	return res, nil
}

// checkColumns makes sure a pre-existing table has every export column.
func (e *Exporter) checkColumns(ctx context.Context, tx pgx.Tx) error {
	rows, err := tx.Query(ctx, columnsSQL, e.schema, e.name)
	if err != nil {
		return fmt.Errorf("inspect table: %w", err)
	}
	have, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("inspect table: %w", err)
	}
	if missing := missingColumns(have); len(missing) > 0 {
		return fmt.Errorf("table %s.%s exists without columns: %s", e.schema, e.name, strings.Join(missing, ", "))
	}
	return nil
}

const columnsSQL = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

func missingColumns(have []string) []string {
	var missing []string
	for _, c := range columns {
		if !slices.Contains(have, c) {
			missing = append(missing, c)
		}
	}
	return missing
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
	root          text PRIMARY KEY,
	name          text NOT NULL,
	class         text NOT NULL,
	owner         text NOT NULL,
	created       double precision NOT NULL,
	last_modified double precision NOT NULL,
	attributes    jsonb,
	exported_at   timestamptz NOT NULL
)`
}

func upsertSQL(table string) string {
	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns)-1)
	for i, c := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if c != "root" {
			updates = append(updates, c+" = EXCLUDED."+c)
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (root) DO UPDATE SET %s",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
}

// rowArgs returns the insert arguments for rec in column order. A record
// without attributes stores SQL NULL rather than an empty object.
func rowArgs(rec browser.Record, exportedAt time.Time) ([]any, error) {
	var attrs any
	if rec.Attributes != nil {
		b, err := json.Marshal(rec.Attributes)
		if err != nil {
			return nil, fmt.Errorf("encode attributes of %s: %w", rec.Name, err)
		}
		attrs = string(b)
	}
	return []any{rec.Root, rec.Name, rec.Class, rec.Owner, rec.Created, rec.LastModified, attrs, exportedAt}, nil
}

// parseTableName splits "schema.table"; an unqualified name lives in public.
func parseTableName(tableName string) (schema string, table string, err error) {
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		tableName = DefaultTable
	}
	parts := strings.Split(tableName, ".")
	switch {
	case len(parts) == 1:
		schema, table = "public", parts[0]
	case len(parts) == 2:
		schema, table = parts[0], parts[1]
	default:
		return "", "", fmt.Errorf("invalid table name %q", tableName)
	}
	if schema == "" || table == "" {
		return "", "", fmt.Errorf("invalid table name %q", tableName)
	}
	return schema, table, nil
}
