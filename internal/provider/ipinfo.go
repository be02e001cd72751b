package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
)

const ipinfoDefault = "https://ipinfo.io/json"

// Locator guesses the user's city from their public IP, used once at startup
// so the first screen is not blank.
type Locator struct {
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

// NewLocator constructs a Locator against ipinfo.io.
func NewLocator(httpClient *http.Client) *Locator {
	return &Locator{
		baseURL:    ipinfoDefault,
		httpClient: httpClient,
		circuit:    newBreaker("ipinfo"),
	}
}

// NewLocatorWithURL constructs a Locator pointing at a custom endpoint (for
// tests).
func NewLocatorWithURL(baseURL string, httpClient *http.Client) *Locator {
	l := NewLocator(httpClient)
	l.baseURL = baseURL
	return l
}

// Locate returns the city name for the caller's IP.
func (l *Locator) Locate(ctx context.Context) (string, error) {
	var payload struct {
		City string `json:"city"`
	}
	cfg := BackoffConfig{MaxRetries: 1, InitialInterval: defaultBackoff.InitialInterval}
	if err := getJSON(ctx, l.httpClient, l.circuit, cfg, l.baseURL, &payload); err != nil {
		return "", fmt.Errorf("locating by IP: %w", err)
	}
	if payload.City == "" {
		return "", fmt.Errorf("locating by IP: no city in response")
	}
	return payload.City, nil
}
