package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_CoalescesConcurrentCalls(t *testing.T) {
	var g Group[int]
	var calls atomic.Int64

	fn := func(ctx context.Context) (int, error) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
		return 42, nil
	}

	const workers = 50
	results := make([]int, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = g.Do(context.Background(), "tok", fn)
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("compute ran %d times, want 1", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d error: %v", i, errs[i])
		}
		if results[i] != 42 {
			t.Errorf("worker %d result = %d, want 42", i, results[i])
		}
	}
}

func TestGroup_ErrorReachesAllWaiters(t *testing.T) {
	var g Group[int]
	wantErr := errors.New("upstream down")

	fn := func(ctx context.Context) (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 0, wantErr
	}

	const workers = 10
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = g.Do(context.Background(), "bad", fn)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("worker %d error = %v, want %v", i, err, wantErr)
		}
	}
}

func TestGroup_FlightRemovedAfterResolution(t *testing.T) {
	var g Group[int]
	var calls atomic.Int64

	fn := func(ctx context.Context) (int, error) {
		calls.Add(1)
		return int(calls.Load()), nil
	}

	first, err := g.Do(context.Background(), "k", fn)
	if err != nil {
		t.Fatalf("first Do failed: %v", err)
	}
	second, err := g.Do(context.Background(), "k", fn)
	if err != nil {
		t.Fatalf("second Do failed: %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("results = %d, %d; want 1, 2 (each sequential call computes)", first, second)
	}
}

func TestGroup_WaiterDetachesOnContextCancel(t *testing.T) {
	var g Group[string]
	release := make(chan struct{})

	fn := func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	}

	// Start the flight with a long-lived caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if v, err := g.Do(context.Background(), "slow", fn); err != nil || v != "late" {
			t.Errorf("background Do = %q, %v; want late, nil", v, err)
		}
	}()

	// Give the flight time to start, then attach with a short deadline.
	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := g.Do(ctx, "slow", fn)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do with expired context = %v, want DeadlineExceeded", err)
	}

	close(release)
	<-done
}
