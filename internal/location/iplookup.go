package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/signalsfoundry/globe-tracker/internal/logging"
	"github.com/signalsfoundry/globe-tracker/model"
)

const (
	// DefaultIPLookupURL is an ipapi.co compatible endpoint.
	DefaultIPLookupURL = "https://ipapi.co/json/"
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second

	maxBodyBytes = 1 << 16
)

// ipapiResponse is the subset of the ipapi.co payload we read. The service
// reports failures with error/reason and HTTP 200.
type ipapiResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// IPLookup geolocates the caller's public IP with a JSON web service. A
// single request is made per Locate; there are no retries.
type IPLookup struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// NewIPLookup returns a lookup against url; empty values take the defaults.
func NewIPLookup(url string, timeout time.Duration) *IPLookup {
	if url == "" {
		url = DefaultIPLookupURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &IPLookup{
		URL:     url,
		Timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (l *IPLookup) Name() string { return "ip_lookup" }

func (l *IPLookup) Locate(ctx context.Context) (model.GeoCoordinate, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: build request: %w", model.ErrPositionUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	log := logging.LoggerFromContext(ctx, nil)
	log.Debug(ctx, "requesting ip geolocation", logging.String("url", l.URL))

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: ip lookup: %w", model.ErrPositionUnavailable, err)
	}
	defer resp.Body.Close()

	log.Debug(ctx, "ip geolocation response", logging.Int("status", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.GeoCoordinate{}, fmt.Errorf("%w: ip lookup returned %s", model.ErrPositionUnavailable, resp.Status)
	}

	var body ipapiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: decode ip lookup response: %w", model.ErrPositionUnavailable, err)
	}
	if body.Error {
		return model.GeoCoordinate{}, fmt.Errorf("%w: ip lookup: %s", model.ErrPositionUnavailable, body.Reason)
	}
	if body.Latitude == nil || body.Longitude == nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: ip lookup response has no coordinates", model.ErrPositionUnavailable)
	}

	coord := model.GeoCoordinate{Latitude: *body.Latitude, Longitude: *body.Longitude}
	if err := coord.Validate(); err != nil {
		return model.GeoCoordinate{}, fmt.Errorf("%w: %w", model.ErrPositionUnavailable, err)
	}
	return coord, nil
}
