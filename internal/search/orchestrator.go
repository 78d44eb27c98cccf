// Package search drives the two-phase place search: a provider text search
// followed by concurrent per-place detail enrichment, with the enriched batch
// handed to the qualification engine.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zonova/leadscout/internal/model"
	"github.com/zonova/leadscout/internal/qualify"
	"github.com/zonova/leadscout/pkg/google"
)

// MaxCandidates caps the text-search hits enriched per search. Detail
// lookups are the expensive call, so the cap bounds cost and latency.
const MaxCandidates = 20

// photoMaxWidthPx is the width requested when resolving lead photos.
const photoMaxWidthPx = 400

var (
	// ErrEmptyQuery rejects blank queries before any provider call.
	ErrEmptyQuery = eris.New("search: query must not be empty")

	// ErrProviderUnavailable signals a missing or unconfigured search
	// backend. This is a setup problem, not a transient provider failure.
	ErrProviderUnavailable = eris.New("search: place provider not configured, set the Google Places API key")
)

// Config holds the geographic bias and tuning for searches.
type Config struct {
	CenterLat     float64
	CenterLng     float64
	RadiusMeters  float64
	MaxCandidates int
	CallTimeout   time.Duration
	RateLimit     float64
}

// Result is the outcome of one search: the enriched candidate count, the
// qualified leads in text-search rank order, and an explanatory notice when
// candidates were found but none qualified.
type Result struct {
	Query    string                `json:"query"`
	RawCount int                   `json:"raw_count"`
	Leads    []model.QualifiedLead `json:"leads"`
	Notice   string                `json:"notice,omitempty"`
}

// Orchestrator runs searches against the place provider. At most one result
// is retained: a newer search replaces the prior one, though provider calls
// already in flight for the superseded search are not aborted.
type Orchestrator struct {
	google  google.Client
	rules   qualify.Rules
	limiter *rate.Limiter
	cfg     Config

	mu     sync.Mutex
	gen    uint64
	latest *Result
}

// New creates an Orchestrator. client may be nil when the provider is not
// configured; Search then fails with ErrProviderUnavailable.
func New(client google.Client, rules qualify.Rules, cfg Config) *Orchestrator {
	if cfg.MaxCandidates <= 0 || cfg.MaxCandidates > MaxCandidates {
		cfg.MaxCandidates = MaxCandidates
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}
	if rules.MinReviews <= 0 {
		rules.MinReviews = qualify.DefaultMinReviews
	}
	return &Orchestrator{
		google:  client,
		rules:   rules,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		cfg:     cfg,
	}
}

// Latest returns the most recent completed search result, or nil.
func (o *Orchestrator) Latest() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest
}

// Search runs one full search for query. Zero provider results yield an
// empty result and no error; a non-success provider response is a hard
// failure. Per-candidate detail failures drop that candidate silently.
func (o *Orchestrator) Search(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if o.google == nil {
		return nil, ErrProviderUnavailable
	}

	gen := o.begin()
	log := zap.L().With(zap.String("query", query))

	summaries, err := o.textSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(summaries) > o.cfg.MaxCandidates {
		log.Debug("capping candidates",
			zap.Int("hits", len(summaries)),
			zap.Int("cap", o.cfg.MaxCandidates),
		)
		summaries = summaries[:o.cfg.MaxCandidates]
	}

	places := o.enrich(ctx, summaries)
	leads := o.rules.Qualify(places)

	result := &Result{
		Query:    query,
		RawCount: len(places),
		Leads:    leads,
	}
	if len(places) > 0 && len(leads) == 0 {
		result.Notice = fmt.Sprintf(
			"Found %d businesses, but none match the criteria (no website, phone present, %d+ reviews, operational)",
			len(places), o.rules.MinReviews,
		)
	}

	log.Info("search complete",
		zap.Int("raw", result.RawCount),
		zap.Int("qualified", len(leads)),
	)

	o.publish(gen, result)
	return result, nil
}

// ResolvePhotoURL resolves a photo reference into a displayable image URL.
// Failures degrade to "" so a missing image never blocks saving a lead.
func (o *Orchestrator) ResolvePhotoURL(ctx context.Context, photoRef string) string {
	if o.google == nil || photoRef == "" {
		return ""
	}
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	uri, err := o.google.PhotoURL(callCtx, photoRef, photoMaxWidthPx)
	if err != nil {
		zap.L().Debug("photo resolution failed", zap.String("photo", photoRef), zap.Error(err))
		return ""
	}
	return uri
}

func (o *Orchestrator) textSearch(ctx context.Context, query string) ([]google.PlaceSummary, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "search: rate limit wait")
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	req := google.TextSearchRequest{
		TextQuery: query,
		LocationBias: &google.LocationBias{
			Circle: &google.Circle{
				Center: google.LatLng{Latitude: o.cfg.CenterLat, Longitude: o.cfg.CenterLng},
				Radius: o.cfg.RadiusMeters,
			},
		},
	}

	resp, err := o.google.TextSearch(callCtx, req)
	if err != nil {
		return nil, eris.Wrap(err, "search: text search")
	}
	return resp.Places, nil
}

// enrich fetches details for every candidate concurrently. The results slice
// is indexed by candidate position so output order tracks the text-search
// ranking, not fetch completion order; a failed fetch leaves a nil slot that
// is dropped after all fetches settle.
func (o *Orchestrator) enrich(ctx context.Context, summaries []google.PlaceSummary) []model.Place {
	details := make([]*google.PlaceDetails, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range summaries {
		g.Go(func() error {
			if err := o.limiter.Wait(gctx); err != nil {
				return nil //nolint:nilerr // settled: slot stays empty
			}

			callCtx, cancel := context.WithTimeout(gctx, o.cfg.CallTimeout)
			defer cancel()

			d, err := o.google.PlaceDetails(callCtx, s.ID)
			if err != nil {
				zap.L().Debug("detail fetch failed", zap.String("place_id", s.ID), zap.Error(err))
				return nil
			}
			details[i] = d
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; wait for all to settle

	places := make([]model.Place, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		places = append(places, toPlace(d))
	}
	return places
}

// toPlace normalizes a provider detail record into the internal place shape.
func toPlace(d *google.PlaceDetails) model.Place {
	p := model.Place{
		ID:                 d.ID,
		DisplayName:        d.DisplayName.Text,
		Rating:             d.Rating,
		UserRatingCount:    d.UserRatingCount,
		NationalPhone:      d.NationalPhone,
		InternationalPhone: d.InternationalPhone,
		WebsiteURI:         d.WebsiteURI,
		BusinessStatus:     d.BusinessStatus,
		Types:              d.Types,
		FormattedAddress:   d.FormattedAddress,
	}
	for _, photo := range d.Photos {
		p.PhotoRefs = append(p.PhotoRefs, photo.Name)
	}
	if d.Location != nil {
		p.Latitude = d.Location.Latitude
		p.Longitude = d.Location.Longitude
	}
	return p
}

func (o *Orchestrator) begin() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	return o.gen
}

// publish records the result unless a newer search has started, in which
// case the stale result is discarded.
func (o *Orchestrator) publish(gen uint64, result *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen == o.gen {
		o.latest = result
	}
}
