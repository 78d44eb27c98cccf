package model

import "time"

// Score buckets a qualified lead by how promising it looks.
type Score string

const (
	ScoreHot  Score = "Hot"
	ScoreWarm Score = "Warm"
	ScoreCold Score = "Cold"
)

// Status is a pipeline stage. Transitions are unconstrained: any status may
// move to any other.
type Status string

const (
	StatusNew        Status = "New"
	StatusContacted  Status = "Contacted"
	StatusInterested Status = "Interested"
	StatusClosed     Status = "Closed"
	StatusLost       Status = "Lost"
)

// Statuses is the single source of truth for the pipeline stage set. The
// slice order is the display order used by list output and the API.
var Statuses = []Status{
	StatusNew,
	StatusContacted,
	StatusInterested,
	StatusClosed,
	StatusLost,
}

// ValidStatus reports whether s is a member of the pipeline stage set.
func ValidStatus(s Status) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// QualifiedLead is a place that passed all qualification predicates, plus the
// computed score and WhatsApp-ready phone. It exists only for one search
// session and is not persisted until explicitly saved.
type QualifiedLead struct {
	Place
	Score    Score  `json:"score"`
	WhatsApp string `json:"whatsapp"`
}

// PipelineLead is a persisted lead in the sales pipeline. PlaceID is the
// natural key: at most one PipelineLead exists per external place identifier.
// CreatedAt is assigned by the store at insert time and never mutated; rating
// and rating count are a snapshot taken at acquisition and are not refreshed.
type PipelineLead struct {
	ID           string    `json:"id"`
	PlaceID      string    `json:"place_id"`
	BusinessName string    `json:"business_name"`
	Category     string    `json:"category"`
	Rating       float64   `json:"rating"`
	RatingCount  int       `json:"rating_count"`
	Score        Score     `json:"score"`
	Phone        string    `json:"phone"`
	WhatsApp     string    `json:"whatsapp"`
	Address      string    `json:"address"`
	Email        string    `json:"email"`
	WebURL       string    `json:"web_url"`
	Images       []string  `json:"images"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}
