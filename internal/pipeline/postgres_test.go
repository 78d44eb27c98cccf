package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonova/leadscout/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func leadRowColumns() []string {
	return []string{
		"id", "place_id", "business_name", "category", "rating", "rating_count", "score",
		"phone", "whatsapp", "address", "email", "web_url", "images", "status", "notes", "created_at",
	}
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM leads ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows(leadRowColumns()).
			AddRow("l2", "p2", "Ceylon Spice House", "Restaurant", 4.7, 128, "Hot",
				"011 234 5678", "+94112345678", "42 Galle Rd", "", "", `["https://img/p2.jpg"]`, "New", "", &now).
			AddRow("l1", "p1", "Kandy Tea Room", "Cafe", 4.1, 12, "Warm",
				"081 222 3344", "94812223344", "5 Temple St", "owner@tea.lk", "", `[]`, "Contacted", "call back", &now))

	leads, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "l2", leads[0].ID)
	assert.Equal(t, model.ScoreHot, leads[0].Score)
	assert.Equal(t, []string{"https://img/p2.jpg"}, leads[0].Images)
	assert.Equal(t, model.StatusNew, leads[0].Status)

	assert.Equal(t, "p1", leads[1].PlaceID)
	assert.Equal(t, model.StatusContacted, leads[1].Status)
	assert.Empty(t, leads[1].Images)
	assert.Equal(t, "call back", leads[1].Notes)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Exists(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.Exists(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("p2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err = s.Exists(context.Background(), "p2")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Insert(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO leads`).
		WithArgs(pgxmock.AnyArg(), "p1", "Ceylon Spice House", "Restaurant", 4.7, 128,
			"Hot", "011 234 5678", "+94112345678", "42 Galle Rd", "", "", `[]`, "New", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	created, err := s.Insert(context.Background(), model.PipelineLead{
		PlaceID:      "p1",
		BusinessName: "Ceylon Spice House",
		Category:     "Restaurant",
		Rating:       4.7,
		RatingCount:  128,
		Score:        model.ScoreHot,
		Phone:        "011 234 5678",
		WhatsApp:     "+94112345678",
		Address:      "42 Galle Rd",
		Status:       model.StatusNew,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, now, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateFields(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// Fields render in sorted order with sequential placeholders.
	mock.ExpectExec(`UPDATE leads SET notes = \$1, status = \$2 WHERE id = \$3`).
		WithArgs("left voicemail", "Contacted", "l1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateFields(context.Background(), "l1", map[string]any{
		"status": "Contacted",
		"notes":  "left voicemail",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateFields_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET status = \$1 WHERE id = \$2`).
		WithArgs("Closed", "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateFields(context.Background(), "ghost", map[string]any{"status": "Closed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateFields_RejectsUnknownColumn(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	err := s.UpdateFields(context.Background(), "l1", map[string]any{"created_at": "now()"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field not updatable")
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM leads WHERE id = \$1`).
		WithArgs("l1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.Delete(context.Background(), "l1"))

	mock.ExpectExec(`DELETE FROM leads WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdateSet(t *testing.T) {
	set, args, err := buildUpdateSet(map[string]any{
		"web_url": "https://site.example",
		"email":   "a@b.c",
	})
	require.NoError(t, err)
	assert.Equal(t, "email = $1, web_url = $2", set)
	assert.Equal(t, []any{"a@b.c", "https://site.example"}, args)

	_, _, err = buildUpdateSet(nil)
	require.Error(t, err)
}
