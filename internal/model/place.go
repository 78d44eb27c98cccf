// Package model defines the domain types shared across the lead pipeline.
package model

// BusinessStatus values reported by the place provider.
const (
	BusinessStatusOperational       = "OPERATIONAL"
	BusinessStatusClosedTemporarily = "CLOSED_TEMPORARILY"
	BusinessStatusClosedPermanently = "CLOSED_PERMANENTLY"
)

// Place is a normalized provider record for a single business. It is
// ephemeral: places live only for the duration of one search and are never
// persisted directly. Numeric fields default to zero when the provider omits
// them.
type Place struct {
	ID                 string   `json:"id"`
	DisplayName        string   `json:"display_name"`
	Rating             float64  `json:"rating,omitempty"`
	UserRatingCount    int      `json:"user_rating_count,omitempty"`
	NationalPhone      string   `json:"national_phone,omitempty"`
	InternationalPhone string   `json:"international_phone,omitempty"`
	WebsiteURI         string   `json:"website_uri,omitempty"`
	BusinessStatus     string   `json:"business_status,omitempty"`
	Types              []string `json:"types,omitempty"`
	FormattedAddress   string   `json:"formatted_address,omitempty"`
	PhotoRefs          []string `json:"photo_refs,omitempty"`
	Latitude           float64  `json:"latitude,omitempty"`
	Longitude          float64  `json:"longitude,omitempty"`
}

// Operational reports whether the provider considers the business open for
// trade. An empty status is treated as operational since several provider
// responses omit the field for active businesses.
func (p Place) Operational() bool {
	return p.BusinessStatus == "" || p.BusinessStatus == BusinessStatusOperational
}

// PrimaryCategory returns the first category tag, or "" when none exist.
func (p Place) PrimaryCategory() string {
	if len(p.Types) == 0 {
		return ""
	}
	return p.Types[0]
}
