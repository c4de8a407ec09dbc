package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunGroupPropagatesFirstError(t *testing.T) {
	sentinel := errors.New("boom")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := RunGroup(ctx,
		func(ctx context.Context) error { return sentinel },
		func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
	)
	if err == nil || !errors.Is(err, sentinel) {
		t.Fatalf("expected the first loop's error to propagate, got %v", err)
	}
}

func TestRunGroupReturnsNilWhenAllLoopsSucceed(t *testing.T) {
	err := RunGroup(context.Background(),
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return nil },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestSupervisorAddRestartsFailedLoop(t *testing.T) {
	var runs int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := New(nil)
	if err := sup.Add(ctx, Named{Name: "flaky", Run: func(ctx context.Context) error {
		n := atomic.AddInt32(&runs, 1)
		if n < 3 {
			return errors.New("transient failure")
		}
		<-ctx.Done()
		return nil
	}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for atomic.LoadInt32(&runs) < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := atomic.LoadInt32(&runs); got < 3 {
		t.Fatalf("expected the loop to be restarted at least 3 times, got %d", got)
	}

	cancel()
	sup.Wait()
}
