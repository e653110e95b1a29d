package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestShardIndex_Deterministic(t *testing.T) {
	l := NewLoader(8, zerolog.Nop())
	for _, key := range []string{"user-1", "user-2", "admin"} {
		first := l.shardIndex(key)
		for i := 0; i < 10; i++ {
			if got := l.shardIndex(key); got != first {
				t.Fatalf("key %q mapped to %d then %d", key, first, got)
			}
		}
		if first < 0 || first >= 8 {
			t.Fatalf("index %d out of range", first)
		}
	}
}

func TestNewLoader_DefaultWorkers(t *testing.T) {
	l := NewLoader(0, zerolog.Nop())
	if len(l.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(l.workers))
	}
}

func TestSchedule_RunsJobsInOrderPerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoader(2, zerolog.Nop())
	l.Start(ctx)

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		if !l.Schedule("user-1", func(context.Context) {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}) {
			t.Fatal("expected job to be queued")
		}
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not run")
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("expected ordered jobs, got %v", got)
		}
	}
}

func TestSchedule_FullQueueRejects(t *testing.T) {
	l := NewLoader(1, zerolog.Nop())
	// not started: nothing drains the queue
	for i := 0; i < channelBuffer; i++ {
		if !l.Schedule("k", func(context.Context) {}) {
			t.Fatalf("job %d rejected before queue was full", i)
		}
	}
	if l.Schedule("k", func(context.Context) {}) {
		t.Fatal("expected full queue to reject")
	}
}

func TestRun_RecoversPanics(t *testing.T) {
	l := NewLoader(1, zerolog.Nop())
	l.run(context.Background(), 0, job{key: "k", run: func(context.Context) { panic("boom") }})
}
