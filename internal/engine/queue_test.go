package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"transom/internal/engine"
)

func TestQueueRunsTasksFIFO(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := engine.New(nil)
	go q.Run(ctx)

	var mu sync.Mutex
	var order []int
	var handles []*engine.Handle
	for i := 0; i < 5; i++ {
		i := i
		h := q.Submit(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		handles = append(handles, h)
	}

	for _, h := range handles {
		if err := h.Wait(context.Background()); err != nil {
			t.Fatalf("task failed: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestQueueSurvivesTaskError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := engine.New(nil)
	go q.Run(ctx)

	failing := q.Submit(func(ctx context.Context) error {
		return errors.New("boom")
	})
	if err := failing.Wait(context.Background()); err == nil {
		t.Fatal("expected failing task to return error")
	}

	ok := q.Submit(func(ctx context.Context) error {
		return nil
	})
	if err := ok.Wait(context.Background()); err != nil {
		t.Fatalf("expected subsequent task to succeed, got %v", err)
	}
}

func TestQueueRunningIsAtMostOne(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := engine.New(nil)
	go q.Run(ctx)

	release := make(chan struct{})
	started := make(chan struct{})
	h1 := q.Submit(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	h2 := q.Submit(func(ctx context.Context) error { return nil })

	<-started
	time.Sleep(20 * time.Millisecond)
	pending, running := q.Snapshot()
	if running != 1 {
		t.Fatalf("expected exactly one running task, got %d", running)
	}
	if pending != 1 {
		t.Fatalf("expected one pending task, got %d", pending)
	}

	close(release)
	if err := h1.Wait(context.Background()); err != nil {
		t.Fatalf("h1: %v", err)
	}
	if err := h2.Wait(context.Background()); err != nil {
		t.Fatalf("h2: %v", err)
	}
}
