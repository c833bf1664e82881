package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config controls the backoff schedule. MaxRetries counts retries after
// the initial attempt, so MaxRetries=2 means up to 3 calls total.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// JitterFactor in [0,1] randomizes each interval by ±factor.
	JitterFactor float64
}

// DefaultConfig backs off 1s, 2s, 4s, 8s, 16s with a 30s cap.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

func (c *Config) normalized() Config {
	out := Config{
		MaxRetries:      c.MaxRetries,
		InitialInterval: c.InitialInterval,
		MaxInterval:     c.MaxInterval,
		Multiplier:      c.Multiplier,
		JitterFactor:    c.JitterFactor,
	}
	if out.InitialInterval <= 0 {
		out.InitialInterval = 1 * time.Second
	}
	if out.MaxInterval <= 0 {
		out.MaxInterval = 30 * time.Second
	}
	if out.Multiplier <= 0 {
		out.Multiplier = 2.0
	}
	if out.JitterFactor < 0 {
		out.JitterFactor = 0
	}
	if out.JitterFactor > 1 {
		out.JitterFactor = 1
	}
	return out
}

// Operation is retried until it returns nil, a permanent error, or
// attempts are exhausted.
type Operation func(ctx context.Context) error

// PermanentError stops the retry loop immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RetryableError explicitly marks an error as transient. The retrier
// treats every non-permanent error as retryable, so this wrapper exists
// for callers that want to document intent at the error site.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Result reports how a retry run ended. Err is nil on success,
// ErrMaxRetriesExceeded or ErrContextCanceled on exhaustion, or the
// unwrapped cause when a PermanentError cut the run short. LastError
// always holds the error from the final attempt.
type Result struct {
	Err           error
	Attempts      int
	TotalDuration time.Duration
	LastError     error
}

// RetryCallback runs before each wait, with the attempt that just
// failed (1-based), its error, and the upcoming delay.
type RetryCallback func(attempt int, err error, nextInterval time.Duration)

// Retrier runs operations under one backoff schedule.
type Retrier struct {
	cfg Config
}

func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	return &Retrier{cfg: config.normalized()}
}

func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	return r.DoWithCallback(ctx, op, nil)
}

func (r *Retrier) DoWithCallback(ctx context.Context, op Operation, cb RetryCallback) *Result {
	start := time.Now()
	res := &Result{}

	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		res.Attempts = attempt + 1

		if ctx.Err() != nil {
			res.Err = ErrContextCanceled
			res.LastError = lastErr
			res.TotalDuration = time.Since(start)
			return res
		}

		err := op(ctx)
		if err == nil {
			res.TotalDuration = time.Since(start)
			return res
		}
		lastErr = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			res.Err = perm.Err
			res.LastError = perm.Err
			res.TotalDuration = time.Since(start)
			return res
		}

		if attempt == r.cfg.MaxRetries {
			break
		}

		delay := r.backoff(attempt)
		if cb != nil {
			cb(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			res.Err = ErrContextCanceled
			res.LastError = lastErr
			res.TotalDuration = time.Since(start)
			return res
		case <-time.After(delay):
		}
	}

	res.Err = ErrMaxRetriesExceeded
	res.LastError = lastErr
	res.TotalDuration = time.Since(start)
	return res
}

func (r *Retrier) backoff(attempt int) time.Duration {
	d := float64(r.cfg.InitialInterval) * math.Pow(r.cfg.Multiplier, float64(attempt))
	if r.cfg.JitterFactor > 0 {
		spread := d * r.cfg.JitterFactor
		d += (rand.Float64()*2 - 1) * spread
	}
	if d > float64(r.cfg.MaxInterval) {
		d = float64(r.cfg.MaxInterval)
	}
	if d < 0 {
		d = float64(r.cfg.InitialInterval)
	}
	return time.Duration(d)
}

// Do runs op under a one-off retrier built from config.
func Do(ctx context.Context, config *Config, op Operation) *Result {
	return New(config).Do(ctx, op)
}

// DoWithCallback is Do with per-retry notification.
func DoWithCallback(ctx context.Context, config *Config, op Operation, cb RetryCallback) *Result {
	return New(config).DoWithCallback(ctx, op, cb)
}
