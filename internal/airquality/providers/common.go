package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-collector/internal/airquality"
	"github.com/i474232898/air-quality-collector/internal/common"
)

// BreakerConfig controls the per-region circuit breakers. A zero
// FailureThreshold disables them.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

var (
	errNoHTTPClient = errors.New("http client not configured")
	errCircuitOpen  = errors.New("circuit breaker open")
)

// breakerSet keeps one circuit breaker per key so a failing region never
// trips the others.
type breakerSet struct {
	mu     sync.Mutex
	cfg    BreakerConfig
	name   string
	logger *zap.Logger
	byKey  map[string]*gobreaker.CircuitBreaker
}

func newBreakerSet(name string, cfg BreakerConfig, logger *zap.Logger) *breakerSet {
	return &breakerSet{
		cfg:    cfg,
		name:   name,
		logger: logger,
		byKey:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

// get returns the breaker for key, or nil when breakers are disabled.
func (b *breakerSet) get(key string) *gobreaker.CircuitBreaker {
	if b == nil || b.cfg.FailureThreshold == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.byKey[key]; ok {
		return cb
	}
	threshold := b.cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        b.name + ":" + key,
		MaxRequests: 1,
		Timeout:     b.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	b.byKey[key] = cb
	return cb
}

// doRequest executes exactly one HTTP attempt, guarded by cb when it is not nil.
// Transport failures and non-2xx statuses are reported as airquality.ErrTransport.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	call := func() (interface{}, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", airquality.ErrTransport, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: HTTP %d", airquality.ErrTransport, resp.StatusCode)
		}
		return resp, nil
	}

	var result interface{}
	if cb == nil {
		result, err = call()
	} else {
		result, err = cb.Execute(call)
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w: %v", airquality.ErrTransport, errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// Outcome maps a fetch error to a stable metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errCircuitOpen):
		return "breaker_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded),
		common.HasAny(err.Error(), "timeout", "Timeout", "deadline exceeded"):
		return "timeout"
	case errors.Is(err, airquality.ErrEnvelopeMissing):
		return "envelope"
	case errors.Is(err, airquality.ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
