package source

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ginjaninja78/loadexport/internal/logger"
	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS loads (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL DEFAULT 'UNASSIGNED',
    status TEXT NOT NULL DEFAULT '',
    payload JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_loads_project_id ON loads(project_id);
CREATE INDEX IF NOT EXISTS idx_loads_status ON loads(status);
`

// Postgres is a Local backed by a Postgres mirror of the client cache. Each
// row keeps the raw record as JSONB next to the columns used for filtering.
type Postgres struct {
	db *sql.DB
	n  *normalize.Normalizer
}

// OpenPostgres connects and pings the database at uri.
func OpenPostgres(ctx context.Context, uri string, n *normalize.Normalizer) (*Postgres, error) {
	db, err := sql.Open("pgx", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return NewPostgres(db, n), nil
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB, n *normalize.Normalizer) *Postgres {
	return &Postgres{db: db, n: n}
}

// InitSchema creates the loads table and its indexes if missing.
func (p *Postgres) InitSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Loads implements Local.
func (p *Postgres) Loads(ctx context.Context, scope string) ([]types.RawRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, project_id, status, payload
		FROM loads
		WHERE $1 = '' OR project_id = $1
		ORDER BY updated_at, id`, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query loads: %w", err)
	}
	defer rows.Close()

	return collectLoads(ctx, rows)
}

// rowScanner is the part of *sql.Rows that collectLoads reads.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// collectLoads turns loads rows into raw records. A row whose payload does
// not decode is logged and skipped; the remaining rows are still returned.
func collectLoads(ctx context.Context, rows rowScanner) ([]types.RawRecord, error) {
	var records []types.RawRecord
	for rows.Next() {
		var (
			id, projectID, status string
			payload               []byte
		)
		if err := rows.Scan(&id, &projectID, &status, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		rec, err := decodePayload(payload)
		if err != nil {
			logger.FromContext(ctx).Warn().Err(err).Str("load_id", id).Msg("skipping undecodable load")
			continue
		}
		records = append(records, mergeColumns(rec, id, projectID, status))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read loads: %w", err)
	}
	return records, nil
}

// Put upserts records, keyed by their resolved ID. Records without an ID
// are skipped and counted in the returned skipped total.
func (p *Postgres) Put(ctx context.Context, records []types.RawRecord) (stored, skipped int, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO loads (id, project_id, status, payload, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET project_id = EXCLUDED.project_id,
		    status = EXCLUDED.status,
		    payload = EXCLUDED.payload,
		    updated_at = NOW()`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		load := p.n.Normalize(rec)
		if load.ID == "" {
			skipped++
			continue
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			return 0, 0, fmt.Errorf("load %s: failed to encode payload: %w", load.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, load.ID, load.ProjectID, load.Status, payload); err != nil {
			return 0, 0, fmt.Errorf("load %s: failed to upsert: %w", load.ID, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit: %w", err)
	}
	return stored, skipped, nil
}

// decodePayload unmarshals a JSONB payload, keeping numbers as json.Number
// so weights are not rounded through float64.
func decodePayload(payload []byte) (types.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var rec types.RawRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if rec == nil {
		rec = types.RawRecord{}
	}
	return rec, nil
}

// mergeColumns fills id, projectId and status from the row columns when the
// payload does not carry them under any name.
func mergeColumns(rec types.RawRecord, id, projectID, status string) types.RawRecord {
	fill := func(canonical normalize.Field, value string) {
		if value == "" {
			return
		}
		for _, key := range normalize.Aliases(canonical) {
			if v, ok := rec[key]; ok && normalize.String(v) != "" {
				return
			}
		}
		rec[string(canonical)] = value
	}
	fill(normalize.FieldID, id)
	fill(normalize.FieldProjectID, projectID)
	fill(normalize.FieldStatus, status)
	return rec
}
