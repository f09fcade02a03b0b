package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const userAgent = "weather-dashboard/1.0"

type BaseClient struct {
	http           *resty.Client
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	requests       atomic.Int64
	failures       atomic.Int64
}

type ClientConfig struct {
	Timeout        time.Duration
	Threshold      int
	BreakerTimeout time.Duration
}

// upstreamFailure marks responses the breaker should count as failures.
type upstreamFailure struct {
	status int
	body   []byte
}

func (u *upstreamFailure) Error() string {
	return fmt.Sprintf("HTTP %d", u.status)
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	httpClient := resty.New().
		SetTimeout(config.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	threshold := uint32(config.Threshold)
	if threshold == 0 {
		threshold = 3
	}

	// Circuit breaker settings
	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		http:           httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
	}
}

// Get performs a single GET and returns the body of a 2xx response. Failed
// calls are classified into the package's error kinds and never retried.
func (c *BaseClient) Get(ctx context.Context, endpoint, url string, params map[string]string) ([]byte, error) {
	c.requests.Add(1)
	start := time.Now()

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 {
			return nil, &upstreamFailure{status: resp.StatusCode(), body: resp.Body()}
		}
		return resp, nil
	})
	if err != nil {
		c.failures.Add(1)
		return nil, c.classify(endpoint, err)
	}

	resp := result.(*resty.Response)
	status := resp.StatusCode()
	body := resp.Body()

	if status < 200 || status >= 300 {
		c.failures.Add(1)
		apiErr := &APIError{
			Kind:       kindForStatus(status),
			Endpoint:   endpoint,
			StatusCode: status,
			Message:    providerMessage(body),
		}
		c.logger.Warn("Weather provider returned error status",
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	c.logger.Debug("Request successful",
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.Int("body_size", len(body)),
		zap.Duration("duration", time.Since(start)))

	return body, nil
}

func (c *BaseClient) classify(endpoint string, err error) error {
	var upstream *upstreamFailure
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &APIError{Kind: ErrUnavailable, Endpoint: endpoint, Err: err}
	case errors.As(err, &upstream):
		c.logger.Warn("Weather provider server error",
			zap.String("endpoint", endpoint),
			zap.Int("status", upstream.status))
		return &APIError{
			Kind:       ErrUpstream,
			Endpoint:   endpoint,
			StatusCode: upstream.status,
			Message:    providerMessage(upstream.body),
		}
	default:
		c.logger.Warn("HTTP request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return &APIError{Kind: ErrNetwork, Endpoint: endpoint, Err: err}
	}
}

// decode unmarshals a provider body, reporting failures as ErrMalformed.
func decode(endpoint string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &APIError{Kind: ErrMalformed, Endpoint: endpoint, Err: err}
	}
	return nil
}

func providerMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

func (c *BaseClient) GetStats() map[string]interface{} {
	counts := c.circuitBreaker.Counts()
	return map[string]interface{}{
		"requests":             c.requests.Load(),
		"failures":             c.failures.Load(),
		"breaker_state":        c.circuitBreaker.State().String(),
		"consecutive_failures": counts.ConsecutiveFailures,
	}
}
