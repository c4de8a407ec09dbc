package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestSetupAndStartSpan(t *testing.T) {
	shutdown, err := Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	}()

	ctx, end := StartSpan(context.Background(), "test-span")
	if ctx == nil {
		t.Fatalf("StartSpan returned a nil context")
	}
	end(nil)
}

func TestStartSpanRecordsError(t *testing.T) {
	shutdown, err := Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	_, end := StartSpan(context.Background(), "failing-span")
	end(errors.New("boom"))
}
