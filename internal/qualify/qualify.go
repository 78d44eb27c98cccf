// Package qualify implements the lead qualification engine: pure filtering
// and scoring of enriched place records against fixed business rules.
package qualify

import (
	"strings"

	"github.com/zonova/leadscout/internal/model"
)

// Disqualification reason codes.
const (
	ReasonFewReviews     = "few_reviews"
	ReasonHasWebsite     = "has_website"
	ReasonNoPhone        = "no_phone"
	ReasonNotOperational = "not_operational"
)

// DefaultMinReviews is the established-business review floor.
const DefaultMinReviews = 10

// Rules holds the tunable qualification thresholds.
type Rules struct {
	MinReviews int
}

// DefaultRules returns the stock qualification rules.
func DefaultRules() Rules {
	return Rules{MinReviews: DefaultMinReviews}
}

// Disqualify checks a single place against all qualification predicates.
// Returns true and a reason code when the place should be excluded. Missing
// rating and review counts are zero values and never cause a failure.
func (r Rules) Disqualify(p model.Place) (bool, string) {
	minReviews := r.MinReviews
	if minReviews <= 0 {
		minReviews = DefaultMinReviews
	}

	// 1. Too few reviews to be an established business.
	if p.UserRatingCount < minReviews {
		return true, ReasonFewReviews
	}

	// 2. Already has a website.
	if strings.TrimSpace(p.WebsiteURI) != "" {
		return true, ReasonHasWebsite
	}

	// 3. No phone reachable over WhatsApp.
	if FormatWhatsApp(p.InternationalPhone, p.NationalPhone) == "" {
		return true, ReasonNoPhone
	}

	// 4. Business not currently operating.
	if !p.Operational() {
		return true, ReasonNotOperational
	}

	return false, ""
}

// Qualify filters a batch of places down to qualified leads, preserving the
// input order. The function is pure: it performs no I/O, and running it twice
// on the same input yields identical output.
func (r Rules) Qualify(places []model.Place) []model.QualifiedLead {
	leads := make([]model.QualifiedLead, 0, len(places))
	for _, p := range places {
		if dq, _ := r.Disqualify(p); dq {
			continue
		}
		leads = append(leads, model.QualifiedLead{
			Place:    p,
			Score:    ScoreFor(p.Rating, p.UserRatingCount),
			WhatsApp: FormatWhatsApp(p.InternationalPhone, p.NationalPhone),
		})
	}
	return leads
}

// Score ladder thresholds.
const (
	hotRating   = 4.5
	hotReviews  = 15
	warmRating  = 4.0
	warmReviews = 10
)

// ScoreFor assigns a lead score from rating and review volume. Strong
// rating-and-volume combinations are Hot, moderate ones Warm, the rest Cold.
func ScoreFor(rating float64, reviews int) model.Score {
	switch {
	case rating >= hotRating && reviews >= hotReviews:
		return model.ScoreHot
	case rating >= warmRating && reviews >= warmReviews:
		return model.ScoreWarm
	default:
		return model.ScoreCold
	}
}
