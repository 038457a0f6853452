// Package httpclient is the shared outbound HTTP client of the provider
// adapters: timeouts, retries with jittered backoff, a request rate
// limiter, and a circuit breaker so a flapping provider trips fast
// instead of burning the retry budget every throttle window.
package httpclient

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/countervalue/market-cache/metrics"
	"github.com/countervalue/market-cache/provider"
)

// Options configures retry behaviour.
type Options struct {
	MaxRetries        int
	BaseBackoff       time.Duration
	LogPrefix         string
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
	// RequestsPerMinute caps outbound request rate; 0 disables the limiter.
	RequestsPerMinute int
}

// DefaultOptions returns the retry options shared by all adapters.
func DefaultOptions(logPrefix string) Options {
	return Options{
		MaxRetries:        3,
		BaseBackoff:       time.Second,
		LogPrefix:         logPrefix,
		ConnectionTimeout: 10 * time.Second,
		RequestTimeout:    30 * time.Second,
	}
}

// Client wraps an http.Client with retries, rate limiting and a breaker.
type Client struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.RequestsPerMinute/10+1)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    opts.LogPrefix,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("%s: circuit breaker %s -> %s", name, from, to)
		},
	})
	return &Client{
		client: &http.Client{
			Timeout: opts.RequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: opts.ConnectionTimeout}).DialContext,
			},
		},
		opts:    opts,
		limiter: limiter,
		breaker: breaker,
	}
}

// Do executes the request with retries and returns the response body.
// Non-2xx statuses are transient provider errors.
func (c *Client) Do(req *http.Request) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffWithJitter(c.opts.BaseBackoff, attempt)
			log.Printf("%s: retry %d/%d in %.2fs after: %v",
				c.opts.LogPrefix, attempt, c.opts.MaxRetries-1, backoff.Seconds(), lastErr)
			select {
			case <-time.After(backoff):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(req.Context()); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		body, err := c.execute(req)
		if err == nil {
			metrics.RecordProviderRequest("success")
			return body, nil
		}
		metrics.RecordProviderRequest("error")
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s: %v", provider.ErrTransient, c.opts.LogPrefix, lastErr)
}

func (c *Client) execute(req *http.Request) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func backoffWithJitter(base time.Duration, attempt int) time.Duration {
	backoff := base << uint(attempt-1)
	jitter := time.Duration(rand.Int63n(int64(base)))
	return backoff + jitter
}

func truncate(body []byte, max int) string {
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
