package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2.0,
		BreakerEnabled: false,
	}
}

func retryAlways(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func retryNever(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	executor := NewExecutor(fastPolicy())

	calls := 0
	err := executor.Execute(context.Background(), "embed", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	}, retryAlways)

	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestExecuteStopsAfterMaxAttempts(t *testing.T) {
	executor := NewExecutor(fastPolicy())

	calls := 0
	wantErr := errors.New("still down")
	err := executor.Execute(context.Background(), "embed", func(context.Context) error {
		calls++
		return wantErr
	}, retryAlways)

	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestExecuteDoesNotRetryPermanentFailures(t *testing.T) {
	executor := NewExecutor(fastPolicy())

	calls := 0
	err := executor.Execute(context.Background(), "search", func(context.Context) error {
		calls++
		return errors.New("bad request")
	}, retryNever)

	if err == nil {
		t.Fatal("Execute() error = nil, want permanent failure")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestExecuteRespectsCancelledContext(t *testing.T) {
	executor := NewExecutor(fastPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := executor.Execute(ctx, "search", func(context.Context) error {
		calls++
		return nil
	}, retryAlways)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestExecuteOpensBreakerAfterRepeatedFailures(t *testing.T) {
	policy := fastPolicy()
	policy.MaxAttempts = 1
	policy.BreakerEnabled = true
	policy.BreakerMinRequests = 3
	policy.BreakerFailureRatio = 0.5
	policy.BreakerOpenTimeout = time.Minute
	policy.BreakerHalfOpenMax = 1
	executor := NewExecutor(policy)

	failing := func(context.Context) error { return errors.New("upstream down") }
	for i := 0; i < 3; i++ {
		if err := executor.Execute(context.Background(), "generate", failing, retryAlways); err == nil {
			t.Fatalf("Execute() call %d error = nil, want failure", i+1)
		}
	}

	calls := 0
	err := executor.Execute(context.Background(), "generate", func(context.Context) error {
		calls++
		return nil
	}, retryAlways)

	if !IsCircuitOpen(err) {
		t.Fatalf("Execute() error = %v, want open circuit", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 while circuit is open", calls)
	}
}

func TestExecuteKeepsBreakersPerOperation(t *testing.T) {
	policy := fastPolicy()
	policy.MaxAttempts = 1
	policy.BreakerEnabled = true
	policy.BreakerMinRequests = 2
	policy.BreakerFailureRatio = 0.5
	policy.BreakerOpenTimeout = time.Minute
	executor := NewExecutor(policy)

	failing := func(context.Context) error { return errors.New("upstream down") }
	for i := 0; i < 2; i++ {
		_ = executor.Execute(context.Background(), "embed", failing, retryAlways)
	}
	if err := executor.Execute(context.Background(), "embed", failing, retryAlways); !IsCircuitOpen(err) {
		t.Fatalf("embed breaker error = %v, want open circuit", err)
	}

	if err := executor.Execute(context.Background(), "search", func(context.Context) error {
		return nil
	}, retryAlways); err != nil {
		t.Fatalf("search under healthy breaker error = %v, want nil", err)
	}
}

func TestExecuteIgnoresNonRecordedFailures(t *testing.T) {
	policy := fastPolicy()
	policy.MaxAttempts = 1
	policy.BreakerEnabled = true
	policy.BreakerMinRequests = 2
	policy.BreakerFailureRatio = 0.5
	policy.BreakerOpenTimeout = time.Minute
	executor := NewExecutor(policy)

	clientFault := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	failing := func(context.Context) error { return errors.New("bad request") }
	for i := 0; i < 5; i++ {
		_ = executor.Execute(context.Background(), "search", failing, clientFault)
	}

	if err := executor.Execute(context.Background(), "search", func(context.Context) error {
		return nil
	}, clientFault); err != nil {
		t.Fatalf("Execute() error = %v, want nil after non-recorded failures", err)
	}
}
