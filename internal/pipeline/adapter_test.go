package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonova/leadscout/internal/model"
)

func savedLead(id, placeID string, createdAt time.Time) model.PipelineLead {
	return model.PipelineLead{
		ID:           id,
		PlaceID:      placeID,
		BusinessName: "Biz " + placeID,
		Status:       model.StatusNew,
		CreatedAt:    createdAt,
	}
}

func TestAdapter_RefreshLoadsMirror(t *testing.T) {
	now := time.Now().UTC()
	store := &mockStore{leads: []model.PipelineLead{
		savedLead("l2", "p2", now),
		savedLead("l1", "p1", now.Add(-time.Hour)),
	}}
	a := NewAdapter(store)

	require.NoError(t, a.Refresh(context.Background()))

	leads := a.Leads()
	require.Len(t, leads, 2)
	assert.Equal(t, "l2", leads[0].ID)
	assert.True(t, a.SavedPlaceIDs()["p1"])
	assert.True(t, a.SavedPlaceIDs()["p2"])
}

func TestAdapter_RefreshFailureLeavesMirror(t *testing.T) {
	store := &mockStore{leads: []model.PipelineLead{savedLead("l1", "p1", time.Now())}}
	a := NewAdapter(store)
	require.NoError(t, a.Refresh(context.Background()))

	store.listErr = eris.New("connection refused")
	assert.Error(t, a.Refresh(context.Background()))
	assert.Len(t, a.Leads(), 1)
}

func TestAdapter_AddPrependsToMirror(t *testing.T) {
	store := &mockStore{}
	a := NewAdapter(store)

	first, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1", BusinessName: "First"})
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	require.NotNil(t, first.Lead)
	assert.NotEmpty(t, first.Lead.ID)
	assert.False(t, first.Lead.CreatedAt.IsZero())

	second, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p2", BusinessName: "Second"})
	require.NoError(t, err)
	assert.False(t, second.Duplicate)

	// Newest first.
	leads := a.Leads()
	require.Len(t, leads, 2)
	assert.Equal(t, "p2", leads[0].PlaceID)
	assert.Equal(t, "p1", leads[1].PlaceID)
}

func TestAdapter_AddDuplicateIsNonFatal(t *testing.T) {
	store := &mockStore{}
	a := NewAdapter(store)

	_, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1"})
	require.NoError(t, err)

	result, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1"})
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Nil(t, result.Lead)
	assert.Equal(t, "Lead already exists in pipeline", result.Message)

	// Exactly one persisted record; mirror unchanged by the duplicate.
	assert.Len(t, store.inserted, 1)
	assert.Len(t, a.Leads(), 1)
}

func TestAdapter_AddInsertFailureLeavesMirror(t *testing.T) {
	store := &mockStore{insertErr: eris.New("permission denied")}
	a := NewAdapter(store)

	result, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1"})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Empty(t, a.Leads())
}

func TestAdapter_UpdateStatusPatchesRemoteThenLocal(t *testing.T) {
	store := &mockStore{}
	a := NewAdapter(store)
	added, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1", Status: model.StatusNew})
	require.NoError(t, err)

	require.NoError(t, a.UpdateStatus(context.Background(), added.Lead.ID, model.StatusContacted))

	require.Len(t, store.updates, 1)
	assert.Equal(t, added.Lead.ID, store.updates[0].id)
	assert.Equal(t, map[string]any{"status": "Contacted"}, store.updates[0].fields)
	assert.Equal(t, model.StatusContacted, a.Leads()[0].Status)
}

func TestAdapter_UpdateFailureLeavesMirrorUntouched(t *testing.T) {
	store := &mockStore{}
	a := NewAdapter(store)
	added, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1", Status: model.StatusNew})
	require.NoError(t, err)

	store.updateErr = eris.New("lead not found")
	err = a.UpdateStatus(context.Background(), added.Lead.ID, model.StatusClosed)
	require.Error(t, err)
	assert.Equal(t, model.StatusNew, a.Leads()[0].Status)
}

func TestAdapter_UpdateNotes(t *testing.T) {
	store := &mockStore{}
	a := NewAdapter(store)
	added, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1"})
	require.NoError(t, err)

	require.NoError(t, a.UpdateNotes(context.Background(), added.Lead.ID, "called twice, call back Monday"))

	require.Len(t, store.updates, 1)
	assert.Equal(t, map[string]any{"notes": "called twice, call back Monday"}, store.updates[0].fields)
	assert.Equal(t, "called twice, call back Monday", a.Leads()[0].Notes)
}

func TestAdapter_UpdateContact(t *testing.T) {
	store := &mockStore{}
	a := NewAdapter(store)
	added, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1"})
	require.NoError(t, err)

	require.NoError(t, a.UpdateContact(context.Background(), added.Lead.ID, ContactFieldEmail, "owner@example.com"))
	assert.Equal(t, "owner@example.com", a.Leads()[0].Email)

	require.NoError(t, a.UpdateContact(context.Background(), added.Lead.ID, ContactFieldWeb, "https://new-site.example"))
	assert.Equal(t, "https://new-site.example", a.Leads()[0].WebURL)

	err = a.UpdateContact(context.Background(), added.Lead.ID, "phone_home", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown contact field")
}

func TestAdapter_DeleteRemovesFromMirror(t *testing.T) {
	store := &mockStore{}
	a := NewAdapter(store)
	added, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1"})
	require.NoError(t, err)

	require.NoError(t, a.Delete(context.Background(), added.Lead.ID))
	assert.Empty(t, a.Leads())
	assert.Equal(t, []string{added.Lead.ID}, store.deletedIDs)
}

func TestAdapter_DeleteFailureLeavesMirror(t *testing.T) {
	store := &mockStore{}
	a := NewAdapter(store)
	added, err := a.Add(context.Background(), model.PipelineLead{PlaceID: "p1"})
	require.NoError(t, err)

	store.deleteErr = eris.New("network unreachable")
	require.Error(t, a.Delete(context.Background(), added.Lead.ID))
	assert.Len(t, a.Leads(), 1)
}
