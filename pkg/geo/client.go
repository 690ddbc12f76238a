package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/RedAvocado22/quadzone-checkout/pkg/errors"
)

const (
	defaultGeocodeBaseURL       = "https://nominatim.openstreetmap.org"
	defaultRouteBaseURL         = "https://router.project-osrm.org"
	errorBodyReadLimit    int64 = 1024
)

var errBaseURLRequired = errors.New("geocode and route base URLs are required")

// LatLng is the longitude/latitude pair returned by the geocoder.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// Client wraps the free-text geocoding and routing providers used to price
// shipping. Both calls are bounded by the HTTP client timeout; callers decide
// what a failure means (the shipping estimator falls back to a minimum fee).
type Client struct {
	httpClient     *http.Client
	geocodeBaseURL string
	routeBaseURL   string
	apiKey         string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURLs overrides the configured provider base URLs.
func WithBaseURLs(geocodeBaseURL, routeBaseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(geocodeBaseURL); trimmed != "" {
			c.geocodeBaseURL = trimmed
		}
		if trimmed := strings.TrimSpace(routeBaseURL); trimmed != "" {
			c.routeBaseURL = trimmed
		}
	}
}

// WithAPIKey attaches a provider API key to outgoing requests.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the geocoding/routing client.
func NewClient(opts ...Option) (*Client, error) {
	client := &Client{
		geocodeBaseURL: defaultGeocodeBaseURL,
		routeBaseURL:   defaultRouteBaseURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.geocodeBaseURL == "" || client.routeBaseURL == "" {
		return nil, errBaseURLRequired
	}

	return client, nil
}

// Geocode resolves a normalized one-line address into coordinates. An empty
// provider result is a dependency error; the caller owns the fallback policy.
func (c *Client) Geocode(ctx context.Context, address string) (LatLng, error) {
	if c == nil {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeDependency, "geo client not configured")
	}
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	query := url.Values{}
	query.Set("q", trimmed)
	query.Set("format", "json")
	query.Set("limit", "1")
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/search?%s", strings.TrimRight(c.geocodeBaseURL, "/"), query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geocode request failed")
	}

	var apiResp []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geocode response")
	}
	if len(apiResp) == 0 {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeDependency, "geocoder returned no results")
	}

	var result LatLng
	if _, err := fmt.Sscanf(apiResp[0].Lat, "%f", &result.Latitude); err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse geocode latitude")
	}
	if _, err := fmt.Sscanf(apiResp[0].Lon, "%f", &result.Longitude); err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse geocode longitude")
	}

	return result, nil
}

// Distance returns the driving distance between origin and destination in
// kilometers.
func (c *Client) Distance(ctx context.Context, origin, destination LatLng) (float64, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "geo client not configured")
	}

	endpoint := fmt.Sprintf(
		"%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		strings.TrimRight(c.routeBaseURL, "/"),
		origin.Longitude, origin.Latitude,
		destination.Longitude, destination.Latitude,
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build route request")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute route request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "route request failed")
	}

	var apiResp struct {
		Code   string `json:"code"`
		Routes []struct {
			DistanceMeters float64 `json:"distance"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode route response")
	}
	if apiResp.Code != "" && !strings.EqualFold(apiResp.Code, "Ok") {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("route provider returned code %q", apiResp.Code))
	}
	if len(apiResp.Routes) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "route provider returned no routes")
	}

	return apiResp.Routes[0].DistanceMeters / 1000.0, nil
}
