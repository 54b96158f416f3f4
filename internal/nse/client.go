package nse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Alias1177/oisentinel/models"
)

const (
	baseURL  = "https://www.nseindia.com"
	chainURL = baseURL + "/api/option-chain-indices?symbol=%s"
)

var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64)" +
		" AppleWebKit/537.36 (KHTML, like Gecko)" +
		" Chrome/123.0.0.0 Safari/537.36",
	"Accept":  "application/json, text/plain, */*",
	"Referer": baseURL + "/option-chain",
}

// Client fetches the option-chain document from the NSE public API.
// NSE rejects cookieless requests, so the client keeps a cookie jar and
// warms it up against the homepage before the first chain request.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     *models.Config
	logger     zerolog.Logger
	warmedUp   bool
}

// NewClient creates a new NSE API client with rate limiting
func NewClient(config *models.Config) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeout) * time.Second,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		config:  config,
		logger:  log.With().Str("component", "nse_client").Logger(),
	}
}

// FetchChain retrieves and decodes the full option-chain document for the
// configured symbol. The expiry label is resolved by the caller; the
// indices endpoint always returns every listed expiry and downstream
// normalization filters to the requested one.
func (c *Client) FetchChain(ctx context.Context, expiryLabel string) (*models.RawChainDocument, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("rate limiter: %w", err)}
	}

	if !c.warmedUp {
		c.warmup(ctx)
	}

	url := fmt.Sprintf(chainURL, c.config.Symbol)
	c.logger.Debug().Str("url", url).Str("expiry", expiryLabel).Msg("Fetching option chain")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("creating request: %w", err)}
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			// A 401/403 usually means the session cookies expired; warm
			// up again before the next attempt.
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				c.warmup(ctx)
			}
			return &UpstreamError{StatusCode: resp.StatusCode}
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return nil, upstream
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	var doc models.RawChainDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		c.logger.Error().Err(err).Int("body_len", len(body)).Msg("Error parsing option-chain JSON")
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("parsing JSON: %w", err)}
	}

	if len(doc.Records.Data) == 0 {
		c.logger.Warn().Msg("No strikes in option-chain response")
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("empty records.data")}
	}

	c.logger.Debug().
		Int("rows", len(doc.Records.Data)).
		Float64("spot", doc.Records.UnderlyingValue).
		Msg("Fetched option chain")
	return &doc, nil
}

// warmup hits the NSE homepage so the jar picks up the session cookies the
// API endpoints require. Best-effort: a failure here just means the chain
// request itself will fail and be retried.
func (c *Client) warmup(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Cookie warmup request failed")
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.warmedUp = true
	c.logger.Debug().Int("status", resp.StatusCode).Msg("Cookie warmup done")
}
