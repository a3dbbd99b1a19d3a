package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoop_RunsOnStartAndTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks int32

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, LoopConfig{
			Name:       "test",
			Interval:   10 * time.Millisecond,
			RunOnStart: true,
			OnTick: func(context.Context) {
				atomic.AddInt32(&ticks, 1)
			},
		})
	}()

	time.Sleep(55 * time.Millisecond)
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if n := atomic.LoadInt32(&ticks); n < 3 {
		t.Errorf("expected at least 3 ticks, got %d", n)
	}
}

func TestLoop_InvalidInterval(t *testing.T) {
	if err := Loop(context.Background(), LoopConfig{Name: "bad"}); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
