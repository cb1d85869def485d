package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Article is one news headline.
type Article struct {
	Title  string `json:"title"`
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
}

// NewsService returns the day's headlines for the spoken readout.
type NewsService interface {
	Headlines(ctx context.Context, limit int) ([]Article, error)
}

// NewsClient talks to the mirror backend news proxy.
type NewsClient struct {
	baseURL string
	client  *http.Client
}

// NewNewsClient creates a news API client.
func NewNewsClient(baseURL string) *NewsClient {
	return &NewsClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type newsResponse struct {
	Data []Article `json:"data"`
}

func (c *NewsClient) Headlines(ctx context.Context, limit int) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/news", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news service returned status %d", resp.StatusCode)
	}

	var out newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode news response: %w", err)
	}
	if limit > 0 && len(out.Data) > limit {
		out.Data = out.Data[:limit]
	}
	return out.Data, nil
}
