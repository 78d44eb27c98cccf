package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/zonova/leadscout/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// The unique index on place_id backs up the application-level existence
// check, closing the race between two concurrent creates for the same place.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id            TEXT PRIMARY KEY,
	place_id      TEXT NOT NULL UNIQUE,
	business_name TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT 'Business',
	rating        DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating_count  INTEGER NOT NULL DEFAULT 0,
	score         TEXT NOT NULL DEFAULT 'Cold',
	phone         TEXT NOT NULL DEFAULT '',
	whatsapp      TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	web_url       TEXT NOT NULL DEFAULT '',
	images        JSONB NOT NULL DEFAULT '[]',
	status        TEXT NOT NULL DEFAULT 'New',
	notes         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
`

const leadColumns = `id, place_id, business_name, category, rating, rating_count, score,
	phone, whatsapp, address, email, web_url, images, status, notes, created_at`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.PipelineLead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.PipelineLead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) Exists(ctx context.Context, placeID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE place_id = $1)`, placeID,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: lead exists")
	}
	return exists, nil
}

func (s *PostgresStore) Insert(ctx context.Context, lead model.PipelineLead) (*model.PipelineLead, error) {
	lead.ID = uuid.New().String()

	imagesJSON, err := json.Marshal(imagesOrEmpty(lead.Images))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal images")
	}

	// created_at comes back server-assigned.
	err = s.pool.QueryRow(ctx,
		`INSERT INTO leads (id, place_id, business_name, category, rating, rating_count,
			score, phone, whatsapp, address, email, web_url, images, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING created_at`,
		lead.ID, lead.PlaceID, lead.BusinessName, lead.Category, lead.Rating, lead.RatingCount,
		string(lead.Score), lead.Phone, lead.WhatsApp, lead.Address, lead.Email, lead.WebURL,
		string(imagesJSON), string(lead.Status), lead.Notes,
	).Scan(&lead.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lead")
	}

	return &lead, nil
}

func (s *PostgresStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	set, args, err := buildUpdateSet(fields)
	if err != nil {
		return err
	}
	args = append(args, id)

	res, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE leads SET %s WHERE id = $%d`, set, len(args)),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", id)
	}
	if res.RowsAffected() == 0 {
		return eris.Errorf("postgres: lead not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if res.RowsAffected() == 0 {
		return eris.Errorf("postgres: lead not found: %s", id)
	}
	return nil
}

// buildUpdateSet renders "col = $n" pairs for the allow-listed fields in a
// stable order so tests can match the generated SQL.
func buildUpdateSet(fields map[string]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, eris.New("postgres: no fields to update")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if !updatableFields[name] {
			return "", nil, eris.Errorf("postgres: field not updatable: %s", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		set  []string
		args []any
	)
	for i, name := range names {
		set = append(set, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, fields[name])
	}
	return strings.Join(set, ", "), args, nil
}

func imagesOrEmpty(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}

func scanLead(rows pgx.Rows) (*model.PipelineLead, error) {
	var (
		lead       model.PipelineLead
		score      string
		status     string
		imagesJSON string
		createdAt  *time.Time
	)

	err := rows.Scan(
		&lead.ID, &lead.PlaceID, &lead.BusinessName, &lead.Category,
		&lead.Rating, &lead.RatingCount, &score,
		&lead.Phone, &lead.WhatsApp, &lead.Address, &lead.Email, &lead.WebURL,
		&imagesJSON, &status, &lead.Notes, &createdAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan lead")
	}

	lead.Score = model.Score(score)
	lead.Status = model.Status(status)
	if err := json.Unmarshal([]byte(imagesJSON), &lead.Images); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal images")
	}

	// A not-yet-materialized timestamp falls back to now.
	if createdAt != nil {
		lead.CreatedAt = *createdAt
	} else {
		lead.CreatedAt = time.Now().UTC()
	}

	return &lead, nil
}
