// Client for the off-chain attestation service. Given the message hash of a
// source-chain event it returns the attestation payload once the service has
// observed and signed the event. Until then the lookup is a normal "not
// ready" outcome, never an error.

package attestor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/HexBridge-io/relayer-go/common"
	"github.com/HexBridge-io/relayer-go/retrier"
)

const defaultRequestTimeout = 15 * time.Second

type Config struct {
	// BaseURL of the attestation service, e.g. https://attest.example.com
	BaseURL string
	// RequestTimeout bounds a single HTTP round trip. Zero uses the default.
	RequestTimeout time.Duration
	// HTTPClient overrides the default client; injected by tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// attestationResponse is the service's wire format.
type attestationResponse struct {
	Status      string `json:"status"`
	Attestation string `json:"attestation"`
}

func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout == 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	settings := gobreaker.Settings{
		Name:     "attestation-service",
		Interval: 10 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// pending attestations are a normal outcome and must not trip the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, retrier.ErrNotReady)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("attestation service circuit breaker state changed")
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// FetchAttestation looks up the attestation for messageHash.
//
// HTTP 404 and pending/absent payloads map to retrier.ErrNotReady. An open
// circuit breaker maps to a retryable 429 so callers back off rather than
// failing the transaction. Other non-2xx responses carry their status code
// for classification.
func (c *Client) FetchAttestation(ctx context.Context, messageHash string) (string, error) {
	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, messageHash)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", retrier.NewStatusError(http.StatusTooManyRequests, "attestation service circuit open")
		}
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetch(ctx context.Context, messageHash string) (string, error) {
	url := fmt.Sprintf("%s/attestations/%s", c.baseURL, messageHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", retrier.Fatal(fmt.Errorf("build attestation request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// network errors classify as retryable downstream
		return "", fmt.Errorf("attestation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read attestation response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// service has not seen the message yet
		return "", retrier.ErrNotReady
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", retrier.NewStatusError(resp.StatusCode, "attestation lookup for %s", common.Shorten(messageHash, 8))
	}

	var ar attestationResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return "", retrier.Fatal(fmt.Errorf("decode attestation response: %w", err))
	}

	if ar.Attestation == "" || ar.Status == "pending_confirmations" {
		return "", retrier.ErrNotReady
	}
	return ar.Attestation, nil
}
