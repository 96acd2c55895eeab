package bureau

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/logger"
)

const userAgent = "pendency-service/1.0"

// Option configures an adapter
type Option func(*options)

type options struct {
	logger     *zap.Logger
	httpClient *http.Client
	now        func() time.Time
}

// WithLogger sets the adapter logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHTTPClient replaces the default traced HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithClock overrides the time source used for LastUpdate defaults
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return o
}

// response is a fully read provider response
type response struct {
	StatusCode int
	Body       []byte
}

// client performs provider requests with rate limiting and retries
type client struct {
	code       pendency.ProviderCode
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	now        func() time.Time
}

func newClient(code pendency.ProviderCode, cfg *ClientConfig, opts []Option) (*client, error) {
	if cfg == nil {
		return nil, ErrConfigMissingBaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", code, err)
	}
	o := buildOptions(opts)

	c := &client{
		code:       code,
		config:     cfg,
		httpClient: o.httpClient,
		logger:     o.logger.Named("bureau").With(zap.String("provider", code.String())),
		now:        o.now,
	}
	if cfg.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateBurst)
	}
	return c, nil
}

// do sends the request built by newRequest, retrying transient failures.
// newRequest is called once per attempt so bodies can be replayed.
// A 404 is returned as a response, not an error: providers use it for
// "no pendencies registered".
func (c *client) do(ctx context.Context, newRequest func(ctx context.Context) (*http.Request, error)) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryInitialInterval
	policy.MaxInterval = c.config.RetryMaxInterval
	policy.MaxElapsedTime = 0 // bounded by the context and MaxRetries

	attempt := 0
	operation := func() (*response, error) {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(fmt.Errorf("%w: %v", pendency.ErrProviderRateLimited, err))
			}
		}
		req, err := newRequest(ctx)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%s: failed to create request: %w", c.code, err))
		}
		req.Header.Set("User-Agent", userAgent)
		if rid := logger.GetRequestID(ctx); rid != "" {
			req.Header.Set("X-Request-ID", rid)
		}
		return c.roundTrip(ctx, req)
	}
	notify := func(err error, wait time.Duration) {
		logger.WithLogger(ctx, c.logger).Debug("Retrying provider request",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.config.MaxRetries)), ctx)
	resp, err := backoff.RetryNotifyWithData(operation, b, notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, pendency.ErrProviderUnavailable) {
			return nil, fmt.Errorf("%w: %v", pendency.ErrProviderUnavailable, ctxErr)
		}
		return nil, err
	}
	return resp, nil
}

// roundTrip executes one attempt and classifies the outcome
func (c *client) roundTrip(ctx context.Context, req *http.Request) (*response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", pendency.ErrProviderUnavailable, err))
		}
		return nil, fmt.Errorf("%w: %v", pendency.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", pendency.ErrProviderUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(fmt.Errorf("%w: HTTP %d", pendency.ErrProviderAuthFailed, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", pendency.ErrProviderRateLimited, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: HTTP %d", pendency.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return &response{StatusCode: resp.StatusCode}, nil
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, backoff.Permanent(fmt.Errorf("%w: HTTP %d", pendency.ErrProviderRequestFailed, resp.StatusCode))
	}
	return &response{StatusCode: resp.StatusCode, Body: body}, nil
}

// url joins the base url with path
func (c *client) url(path string) string {
	return c.config.BaseURL + path
}
