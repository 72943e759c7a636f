package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := RetryDelay(context.Background(), func(context.Context) (int, error) {
		calls++
		return 42, nil
	}, 3, time.Millisecond)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	calls := 0
	got, err := RetryDelay(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, 3, time.Millisecond)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	calls := 0
	wantErr := errors.New("attempt 3")
	_, err := RetryDelay(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls == 3 {
			return 0, wantErr
		}
		return 0, errors.New("earlier")
	}, 3, time.Millisecond)

	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want the final attempt's error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := RetryDelay(ctx, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	}, 3, time.Hour)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1: cancellation must stop the backoff wait", calls)
	}
}

func TestRetryDefaultsMaxAttempts(t *testing.T) {
	calls := 0
	_, err := RetryDelay(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("always")
	}, 0, time.Millisecond)

	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != DefaultMaxAttempts {
		t.Errorf("calls = %d, want %d", calls, DefaultMaxAttempts)
	}
}

func TestRetryBackoffDoubles(t *testing.T) {
	var gaps []time.Duration
	last := time.Now()
	calls := 0
	RetryDelay(context.Background(), func(context.Context) (int, error) {
		now := time.Now()
		if calls > 0 {
			gaps = append(gaps, now.Sub(last))
		}
		last = now
		calls++
		return 0, errors.New("always")
	}, 3, 20*time.Millisecond)

	if len(gaps) != 2 {
		t.Fatalf("gaps = %d, want 2", len(gaps))
	}
	if gaps[0] < 20*time.Millisecond {
		t.Errorf("first gap %v, want >= 20ms", gaps[0])
	}
	if gaps[1] < 40*time.Millisecond {
		t.Errorf("second gap %v, want >= 40ms (doubled)", gaps[1])
	}
}
