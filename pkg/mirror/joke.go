package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultJokeURL is the public joke API, Spanish, safe mode.
const DefaultJokeURL = "https://v2.jokeapi.dev/joke/Any?lang=es&safe-mode"

// JokeService returns one joke as a single speakable string.
type JokeService interface {
	Joke(ctx context.Context) (string, error)
}

// JokeClient talks to the public joke API.
type JokeClient struct {
	url    string
	client *http.Client
}

// NewJokeClient creates a joke API client. url may be empty to use the
// default public endpoint.
func NewJokeClient(url string) *JokeClient {
	if url == "" {
		url = DefaultJokeURL
	}
	return &JokeClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type jokeResponse struct {
	Type     string `json:"type"`
	Joke     string `json:"joke"`
	Setup    string `json:"setup"`
	Delivery string `json:"delivery"`
}

func (c *JokeClient) Joke(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch joke: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("joke service returned status %d", resp.StatusCode)
	}

	var out jokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode joke response: %w", err)
	}
	if out.Type == "single" {
		return out.Joke, nil
	}
	return out.Setup + " ... " + out.Delivery, nil
}
