package worker

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/planproof/planproof/internal/model"
)

func pageContext(idx int) model.PageContext {
	return model.PageContext{
		PageIndex: idx,
		PageType:  model.PageTypeFloorPlan,
		Ruleset:   model.RulesetFHA,
		ImageRef:  "page.png",
	}
}

func TestPool_ReviewsAllPages(t *testing.T) {
	run := func(ctx context.Context, pc model.PageContext) ([]model.Finding, error) {
		return []model.Finding{{PageIndex: pc.PageIndex, RuleCode: "DOOR-R3"}}, nil
	}

	pool := NewPool(context.Background(), 3, run)
	pool.Start()

	for i := 0; i < 10; i++ {
		pool.Submit(pageContext(i))
	}

	results := pool.Wait()
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}

	var indices []int
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("page %d: unexpected error %v", r.PageIndex, r.Err)
		}
		if len(r.Findings) != 1 || r.Findings[0].PageIndex != r.PageIndex {
			t.Errorf("page %d: wrong findings %v", r.PageIndex, r.Findings)
		}
		indices = append(indices, r.PageIndex)
	}
	sort.Ints(indices)
	for i, idx := range indices {
		if idx != i {
			t.Fatalf("missing page result, got indices %v", indices)
		}
	}
}

func TestPool_CarriesPerPageErrors(t *testing.T) {
	wantErr := errors.New("inference failed")
	run := func(ctx context.Context, pc model.PageContext) ([]model.Finding, error) {
		if pc.PageIndex == 1 {
			return nil, wantErr
		}
		return nil, nil
	}

	pool := NewPool(context.Background(), 2, run)
	pool.Start()
	pool.Submit(pageContext(0))
	pool.Submit(pageContext(1))

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.PageIndex == 1 && !errors.Is(r.Err, wantErr) {
			t.Errorf("page 1: expected review error, got %v", r.Err)
		}
		if r.PageIndex == 0 && r.Err != nil {
			t.Errorf("page 0: unexpected error %v", r.Err)
		}
	}
}

func TestPool_ShutdownStopsWorkers(t *testing.T) {
	var started atomic.Int32
	run := func(ctx context.Context, pc model.PageContext) ([]model.Finding, error) {
		started.Add(1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, nil
		}
	}

	pool := NewPool(context.Background(), 2, run)
	pool.Start()
	pool.Submit(pageContext(0))
	pool.Submit(pageContext(1))

	for started.Load() < 2 {
		time.Sleep(time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after cancellation")
	}
}

func TestPool_ParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	run := func(ctx context.Context, pc model.PageContext) ([]model.Finding, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	pool := NewPool(ctx, 1, run)
	pool.Start()
	pool.Submit(pageContext(0))

	cancel()

	done := make(chan []PageResult, 1)
	go func() { done <- pool.Wait() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after parent cancellation")
	}
}
