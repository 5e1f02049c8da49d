package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

func TestWithExponentialBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	err := WithExponentialBackoff(context.Background(), operation)

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := WithExponentialBackoff(context.Background(), operation, WithInitialDelay(time.Millisecond))

	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestDo_ReportsAttempts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		failures     int
		maxRetries   int
		wantAttempts int
		wantErr      bool
	}{
		{"first try", 0, 3, 1, false},
		{"second try", 1, 3, 2, false},
		{"exhausted", 10, 2, 3, true},
		{"no retries", 10, 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			attempts, err := Do(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return errors.New("transient")
				}
				return nil
			}, WithMaxRetries(tt.maxRetries), WithInitialDelay(time.Millisecond))

			if (err != nil) != tt.wantErr {
				t.Fatalf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("Do() attempts = %d, want %d", attempts, tt.wantAttempts)
			}
			if calls != tt.wantAttempts {
				t.Errorf("operation called %d times, want %d", calls, tt.wantAttempts)
			}
		})
	}
}

func TestWithExponentialBackoff_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, operation, WithInitialDelay(time.Hour))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt before context check, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_FatalError(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return Fatal(errors.New("not found"))
	}

	err := WithExponentialBackoff(context.Background(), operation, WithInitialDelay(time.Hour))

	if !IsFatal(err) {
		t.Errorf("Expected fatal error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retries for fatal error), got: %d", attempts)
	}
}

func TestWithExponentialBackoff_FakeClockDelays(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	var delays []time.Duration

	done := make(chan error, 1)
	go func() {
		done <- WithExponentialBackoff(context.Background(),
			func() error { return errors.New("unavailable") },
			WithClock(clk),
			WithMaxRetries(4),
			WithInitialDelay(time.Second),
			WithMaxDelay(3*time.Second),
			WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) }),
		)
	}()

	for range 4 {
		waitForWaiter(t, clk)
		clk.Step(3 * time.Second)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error after exhausting retries")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not finish")
	}

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	if fmt.Sprint(delays) != fmt.Sprint(want) {
		t.Errorf("delays = %v, want %v", delays, want)
	}
}

func waitForWaiter(t *testing.T, clk *clocktesting.FakeClock) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !clk.HasWaiters() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the retry loop to block on the clock")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFatal(t *testing.T) {
	t.Parallel()
	t.Run("Nil error", func(t *testing.T) {
		t.Parallel()
		if err := Fatal(nil); err != nil {
			t.Errorf("Expected nil, got: %v", err)
		}
	})

	t.Run("Non-nil error", func(t *testing.T) {
		t.Parallel()
		originalErr := errors.New("test error")
		err := Fatal(originalErr)

		if !IsFatal(err) {
			t.Error("Expected error to be fatal")
		}
		if err.Error() != originalErr.Error() {
			t.Errorf("Expected error message %q, got %q", originalErr.Error(), err.Error())
		}
	})
}

func TestFatalError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel error")
	doubleWrapped := fmt.Errorf("context: %w", Fatal(sentinel))

	if !errors.Is(doubleWrapped, sentinel) {
		t.Error("errors.Is should find sentinel through double-wrapped FatalError")
	}
	if !IsFatal(doubleWrapped) {
		t.Error("IsFatal should detect FatalError through fmt.Errorf wrapping")
	}
	if IsFatal(errors.New("regular error")) {
		t.Error("Expected non-fatal error")
	}
}
