// Package google implements a client for the Google Places API (New).
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// searchFieldMask limits text search responses to the identifier and name;
// everything else comes from the per-place details call.
const searchFieldMask = "places.id,places.displayName"

// detailsFieldMask names exactly the fields the qualification rules consume.
const detailsFieldMask = "id,displayName,rating,userRatingCount," +
	"nationalPhoneNumber,internationalPhoneNumber,websiteUri,businessStatus," +
	"types,formattedAddress,photos,location"

// Client performs Google Places API operations.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
	PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error)
	PhotoURL(ctx context.Context, photoRef string, maxWidthPx int) (string, error)
}

// LatLng is a geographic coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Circle is a center-and-radius search bias region. Radius is in meters.
type Circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// LocationBias biases search results toward a region without excluding
// results outside it.
type LocationBias struct {
	Circle *Circle `json:"circle,omitempty"`
}

// TextSearchRequest is the body for a Places Text Search call.
type TextSearchRequest struct {
	TextQuery    string        `json:"textQuery"`
	LocationBias *LocationBias `json:"locationBias,omitempty"`
}

// TextSearchResponse is the response from Places Text Search. An empty
// Places slice means zero results, not an error.
type TextSearchResponse struct {
	Places []PlaceSummary `json:"places"`
}

// PlaceSummary is the slim per-place record returned by text search.
type PlaceSummary struct {
	ID          string      `json:"id"`
	DisplayName DisplayName `json:"displayName"`
}

// DisplayName holds the place's localized display name.
type DisplayName struct {
	Text string `json:"text"`
}

// Photo references a place photo resource.
type Photo struct {
	Name string `json:"name"`
}

// PlaceDetails is the enriched per-place record from the details endpoint.
type PlaceDetails struct {
	ID                 string      `json:"id"`
	DisplayName        DisplayName `json:"displayName"`
	Rating             float64     `json:"rating"`
	UserRatingCount    int         `json:"userRatingCount"`
	NationalPhone      string      `json:"nationalPhoneNumber"`
	InternationalPhone string      `json:"internationalPhoneNumber"`
	WebsiteURI         string      `json:"websiteUri"`
	BusinessStatus     string      `json:"businessStatus"`
	Types              []string    `json:"types"`
	FormattedAddress   string      `json:"formattedAddress"`
	Photos             []Photo     `json:"photos"`
	Location           *LatLng     `json:"location"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", searchFieldMask)

	var result TextSearchResponse
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/"+url.PathEscape(placeID), nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", detailsFieldMask)

	var result PlaceDetails
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// photoMediaResponse is the payload returned when redirects are skipped on
// the photo media endpoint.
type photoMediaResponse struct {
	PhotoURI string `json:"photoUri"`
}

func (c *httpClient) PhotoURL(ctx context.Context, photoRef string, maxWidthPx int) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media?maxWidthPx=%d&skipHttpRedirect=true", c.baseURL, photoRef, maxWidthPx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", eris.Wrap(err, "google: create request")
	}

	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)

	var result photoMediaResponse
	if err := c.do(httpReq, &result); err != nil {
		return "", err
	}
	return result.PhotoURI, nil
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("google: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "google: unmarshal response")
	}

	return nil
}
