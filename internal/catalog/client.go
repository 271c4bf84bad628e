// Package catalog fetches the remote episode catalog. The catalog is
// read-only from the player's point of view; episodes are immutable once
// fetched.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/strollcast/strollcast/internal/models"
)

// ErrUnknownEpisode is returned by Lookup for ids not in the fetched list.
var ErrUnknownEpisode = errors.New("catalog: unknown episode")

// Client talks to the episode catalog API and remembers the last fetched
// episode list for id lookups.
type Client struct {
	baseURL string
	client  *http.Client

	mu       sync.RWMutex
	episodes []models.Episode
	version  int
}

// NewClient creates a catalog client for the API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the catalog base URL episodes resolve audio against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Episodes fetches the versioned episode list. The fetched list replaces
// the one used by Lookup.
func (c *Client) Episodes(ctx context.Context) ([]models.Episode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/episodes", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch episodes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var response models.EpisodesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode episodes: %w", err)
	}

	c.mu.Lock()
	c.episodes = response.Episodes
	c.version = response.Version
	c.mu.Unlock()

	return response.Episodes, nil
}

// Version returns the version of the last fetched list.
func (c *Client) Version() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Lookup finds an episode by id in the last fetched list.
func (c *Client) Lookup(id string) (models.Episode, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, episode := range c.episodes {
		if episode.ID == id {
			return episode, nil
		}
	}
	return models.Episode{}, fmt.Errorf("%w: %s", ErrUnknownEpisode, id)
}
