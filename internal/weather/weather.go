package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultTimeout bounds the whole lookup. Weather is decoration; it must not
// hold up the pipeline.
const DefaultTimeout = 3 * time.Second

// Conditions is the current weather at the configured location.
type Conditions struct {
	TemperatureF float64
	Code         int
	Location     string
}

// Description is the plain-words reading of the WMO weather code.
func (c Conditions) Description() string {
	return describeCode(c.Code)
}

// Sentence renders e.g. "52°F and overcast in Seattle".
func (c Conditions) Sentence() string {
	s := fmt.Sprintf("%d°F and %s", int(math.Round(c.TemperatureF)), c.Description())
	if c.Location != "" {
		s += " in " + c.Location
	}
	return s
}

// Client queries the Open-Meteo forecast API.
type Client struct {
	baseURL    string
	latitude   float64
	longitude  float64
	location   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a weather client for a fixed location.
func NewClient(baseURL string, latitude, longitude float64, location string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		latitude:   latitude,
		longitude:  longitude,
		location:   location,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type forecastResponse struct {
	Current *struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

// Current fetches the current conditions.
func (c *Client) Current(ctx context.Context) (*Conditions, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(c.longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,weather_code")
	q.Set("temperature_unit", "fahrenheit")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather request returned status %d", resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if body.Current == nil {
		return nil, fmt.Errorf("weather response has no current conditions")
	}

	return &Conditions{
		TemperatureF: body.Current.Temperature,
		Code:         body.Current.WeatherCode,
		Location:     c.location,
	}, nil
}

// Describe returns a one-phrase weather report for the intro.
func (c *Client) Describe(ctx context.Context) (string, error) {
	cond, err := c.Current(ctx)
	if err != nil {
		return "", err
	}
	return cond.Sentence(), nil
}

// describeCode maps WMO weather interpretation codes to words.
func describeCode(code int) string {
	switch {
	case code == 0:
		return "clear skies"
	case code == 1 || code == 2:
		return "partly cloudy"
	case code == 3:
		return "overcast"
	case code == 45 || code == 48:
		return "foggy"
	case code >= 51 && code <= 57:
		return "drizzly"
	case code >= 61 && code <= 67, code >= 80 && code <= 82:
		return "rainy"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return "snowy"
	case code >= 95:
		return "stormy"
	}
	return "mixed conditions"
}
