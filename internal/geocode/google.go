package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGoogleBaseURL = "https://maps.googleapis.com/maps/api"

// GoogleClient calls the Google Geocoding API.
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleClient creates a geocoding client. baseURL may be empty to use
// the public endpoint.
func NewGoogleClient(apiKey, baseURL string) *GoogleClient {
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &GoogleClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type googleGeocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves a place name to coordinates. ZERO_RESULTS returns
// (nil, nil).
func (c *GoogleClient) Geocode(ctx context.Context, name string) (*Result, error) {
	q := url.Values{}
	q.Set("address", name)
	q.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s/geocode/json?%s", c.baseURL, q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("geocode api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode api status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp googleGeocodeResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch apiResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("geocode status %s: %s", apiResp.Status, apiResp.ErrorMessage)
	}
	if len(apiResp.Results) == 0 {
		return nil, nil
	}

	first := apiResp.Results[0]
	return &Result{
		Lat:         first.Geometry.Location.Lat,
		Lng:         first.Geometry.Location.Lng,
		DisplayName: first.FormattedAddress,
	}, nil
}

// Close releases resources.
func (c *GoogleClient) Close() {
	c.httpClient.CloseIdleConnections()
}
