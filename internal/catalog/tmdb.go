// Package catalog fetches movie listings from TMDB.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/reelreviews/internal/domain"
	apperrors "github.com/utafrali/reelreviews/pkg/errors"
	"github.com/utafrali/reelreviews/pkg/httpclient"
	"github.com/utafrali/reelreviews/pkg/logger"
)

const upstreamName = "tmdb"

// Getter performs a GET request. *httpclient.CircuitBreakerClient satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Config holds TMDB client settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string
}

// Client lists popular movies from TMDB. It keeps no state between calls.
type Client struct {
	http     Getter
	baseURL  string
	apiKey   string
	language string
	logger   *slog.Logger
}

// NewClient creates a TMDB client that sends requests through getter.
func NewClient(getter Getter, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		http:     getter,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		logger:   logger,
	}
}

// ListPopular returns one page of popular movies. Pages below 1 are read as 1.
// Any upstream failure is reported as UPSTREAM_UNAVAILABLE; the upstream body
// is never passed through.
func (c *Client) ListPopular(ctx context.Context, page int) (*domain.MoviePage, error) {
	if page <= 0 {
		page = 1
	}

	resp, err := c.http.Get(ctx, c.popularURL(page))
	if err != nil {
		return nil, c.unavailable(ctx, page, err)
	}
	if err := httpclient.CheckResponse(resp, upstreamName); err != nil {
		return nil, c.unavailable(ctx, page, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result domain.MoviePage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, c.unavailable(ctx, page, fmt.Errorf("decode popular movies: %w", err))
	}
	if result.Results == nil {
		result.Results = []domain.Movie{}
	}
	if result.Page == 0 {
		result.Page = page
	}
	return &result, nil
}

func (c *Client) popularURL(page int) string {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	if c.language != "" {
		q.Set("language", c.language)
	}
	q.Set("page", strconv.Itoa(page))
	return c.baseURL + "/movie/popular?" + q.Encode()
}

// unavailable logs cause and maps it to UPSTREAM_UNAVAILABLE. A 4xx from TMDB
// usually means a bad API key or request, so it is logged as an error.
func (c *Client) unavailable(ctx context.Context, page int, cause error) error {
	level := slog.LevelWarn
	msg := "catalog request failed"
	var statusErr *httpclient.StatusError
	if errors.As(cause, &statusErr) && httpclient.IsClientError(statusErr.StatusCode) {
		level = slog.LevelError
		msg = "catalog rejected request"
	}
	logger.FromContextOr(ctx, c.logger).Log(ctx, level, msg,
		slog.String("upstream", upstreamName),
		slog.Int("page", page),
		slog.String("error", cause.Error()),
	)
	return apperrors.UpstreamUnavailable(upstreamName, cause)
}
