package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonova/leadscout/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_InsertAndList(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := s.Insert(ctx, model.PipelineLead{
		PlaceID:      "p1",
		BusinessName: "Ceylon Spice House",
		Category:     "Restaurant",
		Rating:       4.7,
		RatingCount:  128,
		Score:        model.ScoreHot,
		Phone:        "011 234 5678",
		WhatsApp:     "+94112345678",
		Address:      "42 Galle Rd, Colombo",
		Images:       []string{"https://img/p1.jpg"},
		Status:       model.StatusNew,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	leads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	got := leads[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "p1", got.PlaceID)
	assert.Equal(t, "Ceylon Spice House", got.BusinessName)
	assert.Equal(t, "Restaurant", got.Category)
	assert.InDelta(t, 4.7, got.Rating, 0.001)
	assert.Equal(t, 128, got.RatingCount)
	assert.Equal(t, model.ScoreHot, got.Score)
	assert.Equal(t, "+94112345678", got.WhatsApp)
	assert.Equal(t, []string{"https://img/p1.jpg"}, got.Images)
	assert.Equal(t, model.StatusNew, got.Status)
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, placeID := range []string{"p1", "p2", "p3"} {
		_, err := s.Insert(ctx, model.PipelineLead{PlaceID: placeID, BusinessName: "Biz " + placeID, Status: model.StatusNew})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	leads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "p3", leads[0].PlaceID)
	assert.Equal(t, "p2", leads[1].PlaceID)
	assert.Equal(t, "p1", leads[2].PlaceID)
}

func TestSQLiteStore_UniquePlaceID(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, model.PipelineLead{PlaceID: "p1", BusinessName: "First", Status: model.StatusNew})
	require.NoError(t, err)

	_, err = s.Insert(ctx, model.PipelineLead{PlaceID: "p1", BusinessName: "Second", Status: model.StatusNew})
	require.Error(t, err)

	leads, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestSQLiteStore_Exists(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Insert(ctx, model.PipelineLead{PlaceID: "p1", BusinessName: "Biz", Status: model.StatusNew})
	require.NoError(t, err)

	exists, err = s.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLiteStore_UpdateFields(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := s.Insert(ctx, model.PipelineLead{PlaceID: "p1", BusinessName: "Biz", Status: model.StatusNew})
	require.NoError(t, err)

	err = s.UpdateFields(ctx, created.ID, map[string]any{
		"status": "Interested",
		"notes":  "asked for a quote",
	})
	require.NoError(t, err)

	leads, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, model.StatusInterested, leads[0].Status)
	assert.Equal(t, "asked for a quote", leads[0].Notes)

	err = s.UpdateFields(ctx, "ghost", map[string]any{"status": "Closed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := s.Insert(ctx, model.PipelineLead{PlaceID: "p1", BusinessName: "Biz", Status: model.StatusNew})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))

	leads, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	err = s.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
}
