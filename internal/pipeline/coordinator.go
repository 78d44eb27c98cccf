package pipeline

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zonova/leadscout/internal/model"
)

// defaultCategory labels leads whose place record carried no category tags.
const defaultCategory = "Business"

// PhotoResolver turns a provider photo reference into a displayable URL,
// returning "" when resolution fails.
type PhotoResolver interface {
	ResolvePhotoURL(ctx context.Context, photoRef string) string
}

// Coordinator composes search output with the pipeline store: it translates
// a qualified lead into the persisted shape and runs it through the
// dedup-checked add path.
type Coordinator struct {
	adapter *Adapter
	photos  PhotoResolver
	titler  cases.Caser
}

// NewCoordinator creates a Coordinator. photos may be nil, in which case
// leads are saved without images.
func NewCoordinator(adapter *Adapter, photos PhotoResolver) *Coordinator {
	return &Coordinator{
		adapter: adapter,
		photos:  photos,
		titler:  cases.Title(language.English),
	}
}

// Adapter exposes the underlying store adapter for list/update/delete.
func (c *Coordinator) Adapter() *Adapter {
	return c.adapter
}

// AddLead saves a qualified lead into the pipeline. The first photo
// reference is resolved to an image URL on a best-effort basis; a failed
// resolution saves the lead without an image.
func (c *Coordinator) AddLead(ctx context.Context, lead model.QualifiedLead) (*AddResult, error) {
	record := model.PipelineLead{
		PlaceID:      lead.ID,
		BusinessName: lead.DisplayName,
		Category:     c.humanizeCategory(lead.PrimaryCategory()),
		Rating:       lead.Rating,
		RatingCount:  lead.UserRatingCount,
		Score:        lead.Score,
		Phone:        firstNonEmpty(lead.NationalPhone, lead.InternationalPhone),
		WhatsApp:     lead.WhatsApp,
		Address:      lead.FormattedAddress,
		Status:       model.StatusNew,
	}

	if c.photos != nil && len(lead.PhotoRefs) > 0 {
		if url := c.photos.ResolvePhotoURL(ctx, lead.PhotoRefs[0]); url != "" {
			record.Images = []string{url}
		}
	}

	return c.adapter.Add(ctx, record)
}

// humanizeCategory turns a provider category tag like "beauty_salon" into a
// display label like "Beauty Salon".
func (c *Coordinator) humanizeCategory(category string) string {
	if category == "" {
		return defaultCategory
	}
	return c.titler.String(strings.ReplaceAll(category, "_", " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
