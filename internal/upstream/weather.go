package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"life-tracker/internal/apperr"
)

// DefaultCity is used when the caller does not name one.
const DefaultCity = "New York"

// Weather calls the OpenWeatherMap current weather endpoint.
type Weather struct {
	client  *Client
	baseURL string
}

// NewWeather creates a weather client authenticating with the appid parameter.
func NewWeather(baseURL, apiKey string, timeout time.Duration) *Weather {
	return &Weather{
		client:  NewClient("weather", &http.Client{Timeout: timeout}, &QueryAuth{Param: "appid"}, apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Current returns the upstream JSON body for city as-is. Error objects the
// upstream embeds in a JSON body are passed through; only transport
// failures and non-JSON bodies are errors.
func (w *Weather) Current(ctx context.Context, city string) ([]byte, error) {
	if strings.TrimSpace(city) == "" {
		city = DefaultCity
	}

	u, err := url.Parse(w.baseURL + "/weather")
	if err != nil {
		return nil, fmt.Errorf("parse weather url: %w", err)
	}
	q := u.Query()
	q.Set("q", city)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}

	resp, err := w.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp.Body) {
		return nil, apperr.Wrap(apperr.ErrUpstream, "weather request failed",
			errors.New("upstream returned a non-JSON body"))
	}
	return resp.Body, nil
}
