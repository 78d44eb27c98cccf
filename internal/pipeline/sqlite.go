package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/zonova/leadscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local,
// single-operator installs that have no Postgres available.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id            TEXT PRIMARY KEY,
	place_id      TEXT NOT NULL UNIQUE,
	business_name TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT 'Business',
	rating        REAL NOT NULL DEFAULT 0,
	rating_count  INTEGER NOT NULL DEFAULT 0,
	score         TEXT NOT NULL DEFAULT 'Cold',
	phone         TEXT NOT NULL DEFAULT '',
	whatsapp      TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	web_url       TEXT NOT NULL DEFAULT '',
	images        TEXT NOT NULL DEFAULT '[]',
	status        TEXT NOT NULL DEFAULT 'New',
	notes         TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.PipelineLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.PipelineLead
	for rows.Next() {
		var (
			lead       model.PipelineLead
			score      string
			status     string
			imagesJSON string
			createdAt  sql.NullTime
		)
		err := rows.Scan(
			&lead.ID, &lead.PlaceID, &lead.BusinessName, &lead.Category,
			&lead.Rating, &lead.RatingCount, &score,
			&lead.Phone, &lead.WhatsApp, &lead.Address, &lead.Email, &lead.WebURL,
			&imagesJSON, &status, &lead.Notes, &createdAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}

		lead.Score = model.Score(score)
		lead.Status = model.Status(status)
		if err := json.Unmarshal([]byte(imagesJSON), &lead.Images); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal images")
		}
		if createdAt.Valid {
			lead.CreatedAt = createdAt.Time
		} else {
			lead.CreatedAt = time.Now().UTC()
		}

		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) Exists(ctx context.Context, placeID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM leads WHERE place_id = ? LIMIT 1`, placeID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: lead exists")
	}
	return true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, lead model.PipelineLead) (*model.PipelineLead, error) {
	lead.ID = uuid.New().String()
	lead.CreatedAt = time.Now().UTC()

	imagesJSON, err := json.Marshal(imagesOrEmpty(lead.Images))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal images")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, place_id, business_name, category, rating, rating_count,
			score, phone, whatsapp, address, email, web_url, images, status, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.PlaceID, lead.BusinessName, lead.Category, lead.Rating, lead.RatingCount,
		string(lead.Score), lead.Phone, lead.WhatsApp, lead.Address, lead.Email, lead.WebURL,
		string(imagesJSON), string(lead.Status), lead.Notes, lead.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}

	return &lead, nil
}

func (s *SQLiteStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	set, args, err := buildUpdateSet(fields)
	if err != nil {
		return err
	}
	// Rewrite the postgres-style placeholders for database/sql.
	for i := 1; i <= len(args)+1; i++ {
		set = strings.Replace(set, fmt.Sprintf("$%d", i), "?", 1)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE leads SET %s WHERE id = ?`, set),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	return checkRowsAffected(res, id)
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: lead not found: %s", id)
	}
	return nil
}
