package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/zonova/leadscout/internal/model"
)

type updateCall struct {
	id     string
	fields map[string]any
}

// mockStore implements Store for adapter and coordinator tests.
type mockStore struct {
	leads      []model.PipelineLead
	existsByID map[string]bool

	existsErr error
	insertErr error
	updateErr error
	deleteErr error
	listErr   error

	inserted   []model.PipelineLead
	updates    []updateCall
	deletedIDs []string

	nextID int
	now    time.Time
}

func (m *mockStore) List(_ context.Context) ([]model.PipelineLead, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.PipelineLead, len(m.leads))
	copy(out, m.leads)
	return out, nil
}

func (m *mockStore) Exists(_ context.Context, placeID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	if m.existsByID[placeID] {
		return true, nil
	}
	for _, lead := range m.inserted {
		if lead.PlaceID == placeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) Insert(_ context.Context, lead model.PipelineLead) (*model.PipelineLead, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.nextID++
	lead.ID = fmt.Sprintf("lead-%d", m.nextID)
	if m.now.IsZero() {
		m.now = time.Now().UTC()
	}
	lead.CreatedAt = m.now.Add(time.Duration(m.nextID) * time.Second)
	m.inserted = append(m.inserted, lead)
	return &lead, nil
}

func (m *mockStore) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, updateCall{id: id, fields: fields})
	return nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

// mockPhotoResolver implements PhotoResolver.
type mockPhotoResolver struct {
	urls  map[string]string
	calls []string
}

func (m *mockPhotoResolver) ResolvePhotoURL(_ context.Context, photoRef string) string {
	m.calls = append(m.calls, photoRef)
	return m.urls[photoRef]
}
