package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	// ErrMaxRetriesExceeded reports that every allowed attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrContextCanceled reports that the context ended before the
	// operation could succeed.
	ErrContextCanceled = errors.New("context canceled during retry")
)

// Config controls the backoff schedule.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialInterval is the wait before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the wait between attempts.
	MaxInterval time.Duration
	// Multiplier grows the wait after every failed attempt.
	Multiplier float64
	// JitterFactor spreads each wait by up to this fraction in either
	// direction, so callers sharing a schedule do not retry in lockstep.
	JitterFactor float64
}

// DefaultConfig waits 1s, 2s, 4s, 8s, 16s between attempts, capped at 30s.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is one attempt of the work being retried.
type Operation func(ctx context.Context) error

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so Do gives up after the current attempt.
// A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result reports how a retried operation ended. Err is nil on success,
// the wrapped cause for permanent failures, or one of this package's
// sentinel errors.
type Result struct {
	Err           error
	Attempts      int
	TotalDuration time.Duration
	// LastError is the error from the most recent failed attempt.
	LastError error
}

// Retrier runs operations under one backoff schedule. It is safe for
// concurrent use.
type Retrier struct {
	cfg Config
}

// New builds a Retrier. A nil config means DefaultConfig; zero or
// out-of-range fields fall back to their defaults.
func New(config *Config) *Retrier {
	cfg := *DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 30 * time.Second
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFactor < 0 {
		cfg.JitterFactor = 0
	}
	if cfg.JitterFactor > 1 {
		cfg.JitterFactor = 1
	}
	return &Retrier{cfg: cfg}
}

// Do runs op until it succeeds, returns a permanent error, exhausts the
// retry budget, or the context ends.
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	res := &Result{}
	started := time.Now()
	defer func() { res.TotalDuration = time.Since(started) }()

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			res.Err = ErrContextCanceled
			return res
		}

		res.Attempts++
		err := op(ctx)
		if err == nil {
			return res
		}
		res.LastError = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			res.Err = perm.Err
			res.LastError = perm.Err
			return res
		}

		if attempt == r.cfg.MaxRetries {
			res.Err = ErrMaxRetriesExceeded
			return res
		}

		select {
		case <-ctx.Done():
			res.Err = ErrContextCanceled
			return res
		case <-time.After(r.backoff(attempt)):
		}
	}
}

// backoff returns the jittered wait after the given zero-based attempt.
// MaxInterval is a hard ceiling, jitter included.
func (r *Retrier) backoff(attempt int) time.Duration {
	d := float64(r.cfg.InitialInterval) * math.Pow(r.cfg.Multiplier, float64(attempt))
	if r.cfg.JitterFactor > 0 {
		d *= 1 + r.cfg.JitterFactor*(2*rand.Float64()-1)
	}
	if limit := float64(r.cfg.MaxInterval); d > limit {
		d = limit
	}
	return time.Duration(d)
}
