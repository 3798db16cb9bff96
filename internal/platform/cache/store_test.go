package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_LoadsOnceUnderContention(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return "standings", nil
	}

	const workers = 24
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "league:week", loader)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if got, _ := v.(string); got != "standings" {
				t.Errorf("unexpected value: %v", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one load, got %d", got)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore(30 * time.Second)
	current := time.Unix(1700000000, 0)
	store.now = func() time.Time { return current }

	store.Set(context.Background(), "k", 1)
	if _, ok := store.Get(context.Background(), "k"); !ok {
		t.Fatal("value should be cached")
	}

	current = current.Add(31 * time.Second)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatal("value should have expired")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := context.Background()
	store.Set(ctx, "standings:l1:1", 1)
	store.Set(ctx, "standings:l1:2", 2)
	store.Set(ctx, "standings:l2:1", 3)

	store.DeletePrefix(ctx, "standings:l1:")

	if _, ok := store.Get(ctx, "standings:l1:1"); ok {
		t.Fatal("prefix entry should be gone")
	}
	if _, ok := store.Get(ctx, "standings:l2:1"); !ok {
		t.Fatal("other league entry should survive")
	}
}

func TestStore_GetOrLoad_PropagatesLoaderError(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	wantErr := errors.New("db unavailable")

	_, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected loader error, got %v", err)
	}

	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatal("failed load must not be cached")
	}
}

func TestStore_NilStoreDelegatesToLoader(t *testing.T) {
	t.Parallel()

	var store *Store
	var calls atomic.Int32

	for i := 0; i < 2; i++ {
		v, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
			calls.Add(1)
			return "fresh", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, _ := v.(string); got != "fresh" {
			t.Fatalf("unexpected value: %v", v)
		}
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("nil store must load every time, got %d calls", got)
	}

	store.Set(context.Background(), "k", "v")
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatal("nil store must never hold values")
	}
	store.Delete(context.Background(), "k")
	store.DeletePrefix(context.Background(), "k")
}
