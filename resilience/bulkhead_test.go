package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_CapsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 2, MaxWait: time.Second})

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			if err != nil {
				t.Errorf("Execute failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("observed %d concurrent calls, limit is 2", got)
	}
}

func TestBulkhead_RejectsImmediatelyWhenFull(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 1})

	occupied := make(chan struct{})
	done := make(chan struct{})
	go func() {
		b.Execute(context.Background(), func(context.Context) error {
			close(occupied)
			<-done
			return nil
		})
	}()
	<-occupied

	err := b.Execute(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	close(done)
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 1, MaxWait: time.Second})

	occupied := make(chan struct{})
	go func() {
		b.Execute(context.Background(), func(context.Context) error {
			close(occupied)
			time.Sleep(30 * time.Millisecond)
			return nil
		})
	}()
	<-occupied

	var ran bool
	err := b.Execute(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected the waiter to get the freed slot, got %v", err)
	}
	if !ran {
		t.Error("expected the waiting call to run")
	}
}

func TestBulkhead_TimesOutWaiting(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})

	occupied := make(chan struct{})
	done := make(chan struct{})
	go func() {
		b.Execute(context.Background(), func(context.Context) error {
			close(occupied)
			<-done
			return nil
		})
	}()
	<-occupied

	err := b.Execute(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
	close(done)
}

func TestBulkhead_ContextCancelWhileWaiting(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 1, MaxWait: time.Second})

	occupied := make(chan struct{})
	done := make(chan struct{})
	go func() {
		b.Execute(context.Background(), func(context.Context) error {
			close(occupied)
			<-done
			return nil
		})
	}()
	<-occupied

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := b.Execute(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	close(done)
}

func TestBulkhead_PropagatesFnError(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 1})

	want := errors.New("stream reset")
	err := b.Execute(context.Background(), func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("expected fn error back, got %v", err)
	}
	if b.InUse() != 0 {
		t.Error("expected the slot released after a failing fn")
	}
}

func TestBulkhead_Counters(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 3})

	if b.Capacity() != 3 || b.Available() != 3 || b.InUse() != 0 {
		t.Fatalf("fresh bulkhead: capacity %d available %d in use %d", b.Capacity(), b.Available(), b.InUse())
	}

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		b.Execute(context.Background(), func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	if b.InUse() != 1 || b.Available() != 2 {
		t.Errorf("with one holder: available %d in use %d", b.Available(), b.InUse())
	}
	close(release)
}

func TestBulkhead_ZeroCapacityCollapsesToOne(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt"})
	if b.Capacity() != 1 {
		t.Errorf("expected capacity 1, got %d", b.Capacity())
	}
	if b.Name() != "stt" {
		t.Errorf("expected name 'stt', got %q", b.Name())
	}
}

func TestBulkhead_AcquireBlocksUntilReleased(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 1})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	got := make(chan error, 1)
	go func() {
		r, err := b.Acquire(context.Background())
		if err == nil {
			r()
		}
		got <- err
	}()

	select {
	case err := <-got:
		t.Fatalf("second acquire returned %v while the slot was held", err)
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("second acquire failed after release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second acquire never got the freed slot")
	}
}

func TestBulkhead_AcquireHonorsContext(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 1})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "stt", MaxConcurrent: 1})

	got, err := ExecuteWithResult(context.Background(), b, func(context.Context) (string, error) {
		return "transcript", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "transcript" {
		t.Errorf("expected 'transcript', got %q", got)
	}

	want := errors.New("decode failed")
	_, err = ExecuteWithResult(context.Background(), b, func(context.Context) (string, error) {
		return "", want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected fn error back, got %v", err)
	}
}
