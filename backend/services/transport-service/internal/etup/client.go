package etup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"transporte/backend/services/transport-service/internal/metrics"
)

// DefaultURL is the public ETUP endpoint of the Jalisco statistics institute.
const DefaultURL = "http://apiiieg.jalisco.gob.mx/api/etup"

const (
	breakerName     = "etup-api"
	maxResponseSize = 256 << 20
)

// ErrResponseTooLarge is wrapped in a FetchError when the body exceeds the read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// FetchError means the ETUP API could not be reached or answered with a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client performs the single unauthenticated GET against the ETUP API.
type Client struct {
	url     string
	client  HTTPDoer
	breaker *gobreaker.CircuitBreaker[[]byte]
	maxBody int64
	logger  *zap.Logger
}

// NewClient builds the API client. An empty url selects DefaultURL.
func NewClient(url string, client HTTPDoer, logger *zap.Logger) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Client{
		url:     url,
		client:  client,
		breaker: breaker,
		maxBody: maxResponseSize,
		logger:  logger,
	}
}

// URL returns the endpoint the client queries.
func (c *Client) URL() string {
	return c.url
}

// Fetch returns the raw response body. Any failure is a *FetchError.
func (c *Client) Fetch(ctx context.Context) (json.RawMessage, error) {
	began := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx)
	})
	if err != nil {
		metrics.ExternalFetchDuration.WithLabelValues("failure").Observe(time.Since(began).Seconds())
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		// breaker rejections (open / half-open saturation)
		return nil, &FetchError{URL: c.url, Err: err}
	}
	metrics.ExternalFetchDuration.WithLabelValues("success").Observe(time.Since(began).Seconds())

	c.logger.Debug("etup api responded", zap.Int("bytes", len(body)), zap.Duration("duration", time.Since(began)))
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: c.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, c.maxBody)}
	}
	return body, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
