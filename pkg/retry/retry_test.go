package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", config.MaxRetries)
	}

	if config.InitialInterval != 1*time.Second {
		t.Errorf("InitialInterval = %v, want 1s", config.InitialInterval)
	}

	if config.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s", config.MaxInterval)
	}

	if config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", config.Multiplier)
	}

	if config.JitterFactor != 0.1 {
		t.Errorf("JitterFactor = %f, want 0.1", config.JitterFactor)
	}
}

func TestNew_WithNilConfig(t *testing.T) {
	retrier := New(nil)
	if retrier == nil {
		t.Fatal("New(nil) returned nil")
	}

	if retrier.cfg.InitialInterval != 1*time.Second {
		t.Errorf("Default InitialInterval = %v, want 1s", retrier.cfg.InitialInterval)
	}
}

func TestNew_WithZeroValues(t *testing.T) {
	retrier := New(&Config{})

	if retrier.cfg.InitialInterval != 1*time.Second {
		t.Errorf("InitialInterval = %v, want 1s (default)", retrier.cfg.InitialInterval)
	}

	if retrier.cfg.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s (default)", retrier.cfg.MaxInterval)
	}

	if retrier.cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0 (default)", retrier.cfg.Multiplier)
	}
}

func TestNew_DoesNotMutateCaller(t *testing.T) {
	config := &Config{JitterFactor: 2.5}
	retrier := New(config)

	if retrier.cfg.JitterFactor != 1 {
		t.Errorf("normalized JitterFactor = %f, want 1", retrier.cfg.JitterFactor)
	}

	if config.JitterFactor != 2.5 {
		t.Errorf("caller's JitterFactor = %f, want 2.5 (unchanged)", config.JitterFactor)
	}
}

func TestRetrier_Do_Success(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}

	if attempts != 1 {
		t.Errorf("Operation called %d times, want 1", attempts)
	}
}

func TestRetrier_Do_SuccessAfterRetries(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}

	if attempts != 3 {
		t.Errorf("Operation called %d times, want 3", attempts)
	}
}

func TestRetrier_Do_MaxRetriesExceeded(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	persistent := errors.New("persistent error")
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return persistent
	})

	if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
		t.Errorf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
	}

	if !errors.Is(result.LastError, persistent) {
		t.Errorf("LastError = %v, want %v", result.LastError, persistent)
	}

	// Initial attempt + 3 retries = 4 total
	if result.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", result.Attempts)
	}

	if attempts != 4 {
		t.Errorf("Operation called %d times, want 4", attempts)
	}
}

func TestRetrier_Do_PermanentError(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	permErr := errors.New("permanent error")
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(permErr)
	})

	if !errors.Is(result.Err, permErr) {
		t.Errorf("Err = %v, want %v", result.Err, permErr)
	}

	// Stops immediately, no retries
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}

	if attempts != 1 {
		t.Errorf("Operation called %d times, want 1", attempts)
	}
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      10,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	result := retrier.Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}

	if result.Attempts < 2 {
		t.Errorf("Attempts = %d, want >= 2", result.Attempts)
	}
}

func TestRetrier_Do_ContextTimeout(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      10,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := retrier.Do(ctx, func(ctx context.Context) error {
		return errors.New("error")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
}

func TestRetrier_DoWithCallback(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	callbackCalls := 0
	result := retrier.DoWithCallback(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("error")
		}
		return nil
	}, func(attempt int, err error, nextInterval time.Duration) {
		callbackCalls++
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	// Invoked before each wait: after attempts 1 and 2
	if callbackCalls != 2 {
		t.Errorf("Callback called %d times, want 2", callbackCalls)
	}
}

func TestBackoff_ExponentialSchedule(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0, // no jitter so the schedule is exact
	})

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // 32s capped at 30s
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		got := retrier.backoff(tt.attempt)
		if got != tt.expected {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestBackoff_WithJitter(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	})

	base := 1 * time.Second
	min := time.Duration(float64(base) * 0.9)
	max := time.Duration(float64(base) * 1.1)

	seen := make(map[time.Duration]bool)
	for i := 0; i < 100; i++ {
		d := retrier.backoff(0)
		seen[d] = true

		if d < min || d > max {
			t.Errorf("backoff(0) = %v, want between %v and %v", d, min, max)
		}
	}

	if len(seen) < 3 {
		t.Errorf("Expected varied intervals with jitter, got %d unique values", len(seen))
	}
}

func TestRetryable_And_Permanent(t *testing.T) {
	err := errors.New("test error")

	var re *RetryableError
	if !errors.As(Retryable(err), &re) {
		t.Error("Retryable(err) should wrap as RetryableError")
	}
	if !errors.Is(re, err) {
		t.Error("RetryableError should unwrap to the original error")
	}

	var pe *PermanentError
	if !errors.As(Permanent(err), &pe) {
		t.Error("Permanent(err) should wrap as PermanentError")
	}
	if !errors.Is(pe, err) {
		t.Error("PermanentError should unwrap to the original error")
	}

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should return nil")
	}
}

func TestDo_PackageLevel(t *testing.T) {
	attempts := 0
	result := Do(context.Background(), &Config{
		MaxRetries:      2,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	}, func(ctx context.Context) error {
		attempts++
		return nil
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	if attempts != 1 {
		t.Errorf("Operation called %d times, want 1", attempts)
	}
}

func TestDoWithCallback_PackageLevel(t *testing.T) {
	attempts := 0
	retries := 0
	result := DoWithCallback(context.Background(), &Config{
		MaxRetries:      2,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	}, func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("error")
		}
		return nil
	}, func(attempt int, err error, nextInterval time.Duration) {
		retries++
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	if retries != 1 {
		t.Errorf("Callback called %d times, want 1", retries)
	}
}

func TestResult_TotalDuration(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      2,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("error")
		}
		return nil
	})

	// Two waits of 50ms and 100ms
	if result.TotalDuration < 100*time.Millisecond {
		t.Errorf("TotalDuration = %v, want >= 100ms", result.TotalDuration)
	}
}

func TestRetrier_NoRetries(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      0,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("error")
	})

	if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
		t.Errorf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
	}

	// Only the initial attempt
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}

	if attempts != 1 {
		t.Errorf("Operation called %d times, want 1", attempts)
	}
}
