package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Weather is the current-conditions summary the assistant reads aloud.
type Weather struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	WeatherType string  `json:"weatherType"`
}

// WeatherService fetches conditions for a city. Implementations are opaque
// data sources; formatting of the spoken phrase happens in the command.
type WeatherService interface {
	Current(ctx context.Context, city, country string) (Weather, error)
}

// WeatherClient talks to the mirror backend weather proxy.
type WeatherClient struct {
	baseURL string
	client  *http.Client
}

// NewWeatherClient creates a weather API client.
func NewWeatherClient(baseURL string) *WeatherClient {
	return &WeatherClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *WeatherClient) Current(ctx context.Context, city, country string) (Weather, error) {
	u := fmt.Sprintf("%s/api/weather?city=%s&country=%s",
		c.baseURL, url.QueryEscape(city), url.QueryEscape(country))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Weather{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Weather{}, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Weather{}, fmt.Errorf("weather service returned status %d", resp.StatusCode)
	}

	var out Weather
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Weather{}, fmt.Errorf("failed to decode weather response: %w", err)
	}
	return out, nil
}
