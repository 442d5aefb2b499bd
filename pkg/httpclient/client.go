// Package httpclient provides the outbound HTTP client used to reach the
// order endpoint: bounded retries with jittered backoff behind a circuit
// breaker.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns the settings used for the order endpoint.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 20,
	}
}

// Client is an http.Client that retries transport errors and 5xx responses.
type Client struct {
	http *http.Client
	cfg  Config
}

// New creates a Client with a pooled transport.
func New(cfg Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	transport.MaxIdleConnsPerHost = cfg.MaxConnsPerHost
	transport.MaxConnsPerHost = cfg.MaxConnsPerHost

	return &Client{
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// Do sends req, retrying up to MaxRetries times. A request body is replayed
// through req.GetBody; requests whose body cannot be replayed are not retried.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			if err := rewind(req); err != nil {
				return nil, fmt.Errorf("retry after %w: %w", lastErr, err)
			}
		}

		resp, err := c.http.Do(req)
		last := attempt >= c.cfg.MaxRetries
		switch {
		case err != nil:
			var netErr net.Error
			if last || !errors.As(err, &netErr) {
				return nil, fmt.Errorf("http request failed after %d attempts: %w", attempt+1, err)
			}
			lastErr = err
		case resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented && !last:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
		default:
			return resp, nil
		}
	}
}

// Post sends body to url with the given content type.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := newPost(ctx, url, contentType, body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	wait := min(c.cfg.RetryWaitMin<<(attempt-1), c.cfg.RetryWaitMax)
	t := time.NewTimer(jitter(wait))
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func rewind(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	if req.GetBody == nil {
		return errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewind request body: %w", err)
	}
	req.Body = body
	return nil
}

func newPost(ctx context.Context, url, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create POST request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

// jitter spreads d by ±25% so clients do not retry in lockstep.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := float64(d) / 4
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}
