package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zonova/leadscout/internal/model"
)

// Contact fields accepted by UpdateContact.
const (
	ContactFieldEmail = "email"
	ContactFieldWeb   = "web_url"
)

// AddResult is the non-fatal outcome of an add: either a created lead or a
// duplicate signal when the place is already tracked.
type AddResult struct {
	Lead      *model.PipelineLead `json:"lead,omitempty"`
	Duplicate bool                `json:"duplicate"`
	Message   string              `json:"message"`
}

// Adapter wraps a Store with an in-memory mirror of the pipeline, kept
// consistent by patching the mirror after each successful remote write
// (cache-aside). The remote write and the local patch are not atomic: a crash
// between them leaves the mirror stale until the next Refresh, which is
// acceptable because the mirror is always rebuildable from the store.
type Adapter struct {
	store Store

	mu     sync.Mutex
	mirror []model.PipelineLead
}

// NewAdapter creates an Adapter over the given store. Call Refresh to load
// the mirror before first use.
func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// Refresh reconciles the mirror with the store via a full ordered scan.
func (a *Adapter) Refresh(ctx context.Context) error {
	leads, err := a.store.List(ctx)
	if err != nil {
		return eris.Wrap(err, "pipeline: refresh")
	}

	a.mu.Lock()
	a.mirror = leads
	a.mu.Unlock()
	return nil
}

// Leads returns a snapshot of the mirror, newest first.
func (a *Adapter) Leads() []model.PipelineLead {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.PipelineLead, len(a.mirror))
	copy(out, a.mirror)
	return out
}

// SavedPlaceIDs returns the set of natural keys currently in the mirror,
// used to flag search results that are already tracked.
func (a *Adapter) SavedPlaceIDs() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make(map[string]bool, len(a.mirror))
	for _, lead := range a.mirror {
		ids[lead.PlaceID] = true
	}
	return ids
}

// Add persists a new lead after a dedup check on the natural key. A
// duplicate is a non-fatal result: nothing is written and the caller is told
// the lead already exists. On success the lead is prepended to the mirror
// (newest-first). The dedup check and the insert are not atomic; the store's
// unique index on the natural key backstops concurrent adds.
func (a *Adapter) Add(ctx context.Context, lead model.PipelineLead) (*AddResult, error) {
	exists, err := a.store.Exists(ctx, lead.PlaceID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: existence check failed")
	}
	if exists {
		return &AddResult{Duplicate: true, Message: "Lead already exists in pipeline"}, nil
	}

	created, err := a.store.Insert(ctx, lead)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: failed to add lead")
	}

	a.mu.Lock()
	a.mirror = append([]model.PipelineLead{*created}, a.mirror...)
	a.mu.Unlock()

	zap.L().Info("lead added to pipeline",
		zap.String("place_id", created.PlaceID),
		zap.String("business", created.BusinessName),
	)
	return &AddResult{Lead: created, Message: "Lead added to pipeline"}, nil
}

// UpdateStatus patches only the status field, remotely then locally.
func (a *Adapter) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	return a.updateField(ctx, id, "status", string(status), func(lead *model.PipelineLead) {
		lead.Status = status
	})
}

// UpdateNotes patches only the notes field, remotely then locally.
func (a *Adapter) UpdateNotes(ctx context.Context, id, notes string) error {
	return a.updateField(ctx, id, "notes", notes, func(lead *model.PipelineLead) {
		lead.Notes = notes
	})
}

// UpdateContact patches a single user-entered contact field (email or web
// URL), remotely then locally.
func (a *Adapter) UpdateContact(ctx context.Context, id, field, value string) error {
	switch field {
	case ContactFieldEmail:
		return a.updateField(ctx, id, field, value, func(lead *model.PipelineLead) {
			lead.Email = value
		})
	case ContactFieldWeb:
		return a.updateField(ctx, id, field, value, func(lead *model.PipelineLead) {
			lead.WebURL = value
		})
	default:
		return eris.Errorf("pipeline: unknown contact field: %s", field)
	}
}

// Delete removes the lead remotely, then from the mirror.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return eris.Wrap(err, "pipeline: failed to delete lead")
	}

	a.mu.Lock()
	for i, lead := range a.mirror {
		if lead.ID == id {
			a.mirror = append(a.mirror[:i], a.mirror[i+1:]...)
			break
		}
	}
	a.mu.Unlock()
	return nil
}

// updateField writes the remote patch first; the mirror is only touched
// after the write succeeds, so a failed write leaves local state unchanged.
func (a *Adapter) updateField(ctx context.Context, id, field string, value any, patch func(*model.PipelineLead)) error {
	if err := a.store.UpdateFields(ctx, id, map[string]any{field: value}); err != nil {
		return eris.Wrapf(err, "pipeline: failed to update %s", field)
	}

	a.mu.Lock()
	for i := range a.mirror {
		if a.mirror[i].ID == id {
			patch(&a.mirror[i])
			break
		}
	}
	a.mu.Unlock()
	return nil
}
