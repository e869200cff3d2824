package queue

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	q.Close()

	for i := 0; i < 100; i++ {
		v, err := q.Pop(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != i {
			t.Fatalf("expected %d, got %d", i, v)
		}
	}
	if _, err := q.Pop(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	q := New[string]()
	if !q.Close() {
		t.Error("expected first close to report true")
	}
	if q.Close() {
		t.Error("expected second close to report false")
	}
	if err := q.Push("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
}

func TestQueue_PushAfterClose(t *testing.T) {
	q := New[string]()
	q.Close()
	if err := q.Push("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := New[string]()
	got := make(chan string, 1)
	go func() {
		v, _ := q.Pop(context.Background())
		got <- v
	}()

	select {
	case v := <-got:
		t.Fatalf("Pop returned %q before any push", v)
	case <-time.After(50 * time.Millisecond):
	}

	q.Push("frame")
	select {
	case v := <-got:
		if v != "frame" {
			t.Errorf("expected 'frame', got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after push")
	}
}

func TestQueue_CloseWakesReader(t *testing.T) {
	q := New[int]()
	done := make(chan error, 1)
	go func() {
		_, err := q.Pop(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reader not woken by close")
	}
}

func TestQueue_PopHonorsContext(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestQueue_ConcurrentProducer(t *testing.T) {
	q := New[int]()
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Push(i)
		}
		q.Close()
	}()

	next := 0
	for {
		v, err := q.Pop(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != next {
			t.Fatalf("expected %d, got %d", next, v)
		}
		next++
	}
	wg.Wait()
	if next != n {
		t.Errorf("expected %d items, got %d", n, next)
	}
}

func TestQueue_LenCountsUndrainedItems(t *testing.T) {
	q := New[int]()
	for i := range 3 {
		if err := q.Push(i); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	q.Close()

	if _, err := q.Pop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 items left after close, got %d", q.Len())
	}
}
