/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package journal records every synchronization run and its per-entity
// outcomes in PostgreSQL.
package journal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

var errNilReport = errors.New("report is nil")

const (
	defaultPort     = 5432
	defaultSSLMode  = "disable"
	defaultAppName  = "vcsync"
	defaultMaxConns = 4
)

//nolint:gochecknoglobals // schema statements
var schema = []string{
	`CREATE TABLE IF NOT EXISTS vcsync_runs (
    run_id      UUID PRIMARY KEY,
    source      TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL,
    created     INTEGER NOT NULL DEFAULT 0,
    updated     INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    error       TEXT
)`,
	`CREATE TABLE IF NOT EXISTS vcsync_outcomes (
    run_id    UUID NOT NULL REFERENCES vcsync_runs (run_id) ON DELETE CASCADE,
    seq       INTEGER NOT NULL,
    kind      TEXT NOT NULL,
    name      TEXT NOT NULL,
    uuid      TEXT,
    pass      TEXT,
    action    TEXT NOT NULL,
    strategy  TEXT,
    reason    TEXT,
    record_id INTEGER,
    PRIMARY KEY (run_id, seq)
)`,
	`CREATE INDEX IF NOT EXISTS vcsync_outcomes_name_idx ON vcsync_outcomes (name)`,
}

const insertRunSQL = `
INSERT INTO vcsync_runs (
    run_id,
    source,
    started_at,
    finished_at,
    created,
    updated,
    skipped,
    error
) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8
)
ON CONFLICT (run_id) DO NOTHING`

const insertOutcomeSQL = `
INSERT INTO vcsync_outcomes (
    run_id,
    seq,
    kind,
    name,
    uuid,
    pass,
    action,
    strategy,
    reason,
    record_id
) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
ON CONFLICT (run_id, seq) DO NOTHING`

// Config describes the PostgreSQL connection. The journal is disabled when
// Host is empty.
type Config struct {
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Database        string `json:"database" yaml:"database"`
	Username        string `json:"username" yaml:"username"`
	Password        string `json:"password" yaml:"password"`
	SSLMode         string `json:"ssl_mode" yaml:"ssl_mode"`
	ApplicationName string `json:"application_name" yaml:"application_name"`
	MaxConns        int32  `json:"max_conns" yaml:"max_conns" validate:"gte=0"`
}

// Enabled reports whether a database host is configured.
func (c *Config) Enabled() bool { return c != nil && c.Host != "" }

// connString renders the configuration as a postgres:// URL.
func (c *Config) connString() string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + strconv.Itoa(port),
		Path:   "/" + c.Database,
	}

	if c.Username != "" {
		if c.Password != "" {
			connURL.User = url.UserPassword(c.Username, c.Password)
		} else {
			connURL.User = url.User(c.Username)
		}
	}

	query := connURL.Query()

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	query.Set("sslmode", sslMode)

	appName := c.ApplicationName
	if appName == "" {
		appName = defaultAppName
	}

	query.Set("application_name", appName)
	connURL.RawQuery = query.Encode()

	return connURL.String()
}

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Journal writes run reports.
type Journal struct {
	db     execer
	pool   *pgxpool.Pool
	logger logger.Logger
}

// New wraps an existing connection.
func New(db execer, log logger.Logger) *Journal {
	return &Journal{db: db, logger: log.WithComponent("journal")}
}

// Open dials PostgreSQL, verifies the connection and creates the schema.
func Open(ctx context.Context, cfg *Config, log logger.Logger) (*Journal, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("journal: parse config: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("journal: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}

	j := New(pool, log)
	j.pool = pool

	if err := j.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	j.logger.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("Connected to run journal")

	return j, nil
}

// EnsureSchema creates the journal tables when they are missing.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := j.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("journal: ensure schema: %w", err)
		}
	}

	return nil
}

// Record stores the run row and one row per outcome in a single batch.
// runErr, when set, is stored as the run's error text.
func (j *Journal) Record(ctx context.Context, report *models.Report, runErr error) error {
	if report == nil {
		return errNilReport
	}

	stats := report.Stats()

	var errText *string
	if runErr != nil {
		s := runErr.Error()
		errText = &s
	}

	batch := &pgx.Batch{}
	batch.Queue(insertRunSQL,
		report.RunID,
		report.Source,
		report.Started,
		report.Finished,
		stats.Created,
		stats.Updated,
		stats.Skipped,
		errText,
	)

	for i := range report.Outcomes {
		o := &report.Outcomes[i]

		var recordID *int
		if o.RecordID != 0 {
			recordID = &o.RecordID
		}

		batch.Queue(insertOutcomeSQL,
			report.RunID,
			i,
			string(o.Kind),
			o.Name,
			nullable(o.UUID),
			nullable(o.Pass),
			string(o.Action),
			nullable(string(o.Strategy)),
			nullable(o.Reason),
			recordID,
		)
	}

	if err := sendBatchExecAll(ctx, batch, j.db.SendBatch, "journal"); err != nil {
		return err
	}

	j.logger.Debug().
		Str("run_id", report.RunID).
		Int("outcomes", len(report.Outcomes)).
		Msg("Recorded run")

	return nil
}

// Close releases the pool opened by Open.
func (j *Journal) Close() {
	if j.pool != nil {
		j.pool.Close()
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func sendBatchExecAll(ctx context.Context, batch *pgx.Batch, send func(context.Context, *pgx.Batch) pgx.BatchResults, operation string) (err error) {
	if batch == nil || batch.Len() == 0 {
		return nil
	}

	br := send(ctx, batch)
	defer func() {
		if closeErr := br.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%s batch close: %w", operation, closeErr)
		}
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, err = br.Exec(); err != nil {
			return fmt.Errorf("%s batch exec (command %d): %w", operation, i, err)
		}
	}

	return nil
}
