// Package geocode resolves US postcodes to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrPostcodeUnknown is returned when the service has no place for a postcode.
var ErrPostcodeUnknown = errors.New("geocode: postcode not found")

// ZippopotamClient looks postcodes up at api.zippopotam.us.
type ZippopotamClient struct {
	baseURL string
	http    *http.Client
}

// NewZippopotamClient returns a client for baseURL (for example
// "https://api.zippopotam.us/us"). Requests are traced through otelhttp.
func NewZippopotamClient(baseURL string, timeout time.Duration) *ZippopotamClient {
	return &ZippopotamClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type placesResponse struct {
	Places []struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

// Lookup returns the coordinates of the first place listed for postcode.
func (c *ZippopotamClient) Lookup(ctx context.Context, postcode string) (lat, lon float64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(postcode), http.NoBody)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, 0, ErrPostcodeUnknown
	case resp.StatusCode != http.StatusOK:
		return 0, 0, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("geocode: decode: %w", err)
	}
	if len(body.Places) == 0 {
		return 0, 0, ErrPostcodeUnknown
	}
	if lat, err = strconv.ParseFloat(body.Places[0].Latitude, 64); err != nil {
		return 0, 0, fmt.Errorf("geocode: latitude: %w", err)
	}
	if lon, err = strconv.ParseFloat(body.Places[0].Longitude, 64); err != nil {
		return 0, 0, fmt.Errorf("geocode: longitude: %w", err)
	}
	return lat, lon, nil
}
