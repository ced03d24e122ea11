// Package scryfall is a thin client for the card search the commander
// picker uses. It asks for legendary creatures matching the typed name
// and maps the result onto the tracker's own card record; everything
// else Scryfall returns is dropped at the boundary.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/magefree/mage-tracker-go/internal/game"
)

const defaultBaseURL = "https://api.scryfall.com"

// Client queries the Scryfall search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	// Scryfall asks for a small delay between requests; the limiter
	// gates every outgoing call.
	limiter *time.Ticker
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client with the polite default request spacing.
func New(logger *zap.Logger, batchDelay time.Duration, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchDelay <= 0 {
		batchDelay = 100 * time.Millisecond
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		limiter:    time.NewTicker(batchDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops the request limiter.
func (c *Client) Close() {
	c.limiter.Stop()
}

type searchResponse struct {
	Data []struct {
		Name          string   `json:"name"`
		ColorIdentity []string `json:"color_identity"`
		Keywords      []string `json:"keywords"`
		ImageURIs     struct {
			ArtCrop string `json:"art_crop"`
		} `json:"image_uris"`
		CardFaces []struct {
			ImageURIs struct {
				ArtCrop string `json:"art_crop"`
			} `json:"image_uris"`
		} `json:"card_faces"`
	} `json:"data"`
}

// SearchCommanders returns legendary creatures matching the query. With
// partnerOnly set, the search is narrowed to cards with the Partner
// keyword so slot two of the picker only offers legal pairings.
func (c *Client) SearchCommanders(ctx context.Context, query string, partnerOnly bool) ([]game.Commander, error) {
	if query == "" {
		return nil, nil
	}

	select {
	case <-c.limiter.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	q := fmt.Sprintf("%s type:legendary type:creature", query)
	if partnerOnly {
		q += " keyword:partner"
	}
	u := fmt.Sprintf("%s/cards/search?%s", c.baseURL, url.Values{
		"q":     {q},
		"order": {"edhrec"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("card search: %w", err)
	}
	defer resp.Body.Close()

	// Scryfall answers 404 for zero matches; that is an empty result,
	// not a failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("card search: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]game.Commander, 0, len(body.Data))
	for _, card := range body.Data {
		art := card.ImageURIs.ArtCrop
		if art == "" && len(card.CardFaces) > 0 {
			art = card.CardFaces[0].ImageURIs.ArtCrop
		}
		hasPartner := false
		for _, kw := range card.Keywords {
			if kw == "Partner" {
				hasPartner = true
				break
			}
		}
		results = append(results, game.Commander{
			Name:          card.Name,
			ArtURL:        art,
			ColorIdentity: card.ColorIdentity,
			HasPartner:    hasPartner,
		})
	}

	c.logger.Debug("card search",
		zap.String("query", query),
		zap.Bool("partnerOnly", partnerOnly),
		zap.Int("results", len(results)),
	)
	return results, nil
}
