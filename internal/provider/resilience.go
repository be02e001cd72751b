package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls retry behaviour for upstream calls.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var defaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 400 * time.Millisecond,
	MaxInterval:     3 * time.Second,
}

var (
	// ErrCityNotFound is returned when the upstream cannot resolve the
	// requested city.
	ErrCityNotFound = errors.New("city not found")

	// ErrUpstream marks network-level and server-side upstream failures.
	ErrUpstream = errors.New("weather upstream unavailable")

	errRateLimited = errors.New("rate limited")
	errCircuitOpen = errors.New("circuit breaker open")
)

// getJSON performs a GET with retries, exponential backoff and a circuit
// breaker, then decodes the JSON body into dst. A 404 maps to
// ErrCityNotFound immediately; 5xx and 429 are retried up to the backoff
// budget and finally surface wrapping ErrUpstream.
func getJSON(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, cfg BackoffConfig, url string, dst any) error {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return nil, ErrCityNotFound
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("server status %d", resp.StatusCode)
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
			}

			var body json.RawMessage
			if decErr := json.NewDecoder(resp.Body).Decode(&body); decErr != nil {
				return nil, fmt.Errorf("decoding response: %w", decErr)
			}
			return body, nil
		})

		if err == nil {
			body, ok := result.(json.RawMessage)
			if !ok {
				return fmt.Errorf("unexpected result type from circuit breaker")
			}
			return json.Unmarshal(body, dst)
		}

		// Not-found is definitive; retrying will not resolve the city.
		if errors.Is(err, ErrCityNotFound) {
			return ErrCityNotFound
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v: %v", ErrUpstream, errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= cfg.MaxRetries {
			return fmt.Errorf("%w: %v", ErrUpstream, lastErr)
		}

		delay := cfg.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if cfg.MaxInterval > 0 && delay > cfg.MaxInterval {
			delay = cfg.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
		case <-timer.C:
		}

		attempt++
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}
