package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

type job struct {
	key string
	run func(context.Context)
}

// Loader runs portal load jobs on a fixed set of workers. Jobs with the same
// key always land on the same worker, so loads for one user never overlap.
type Loader struct {
	workers []chan job
	log     zerolog.Logger
}

// NewLoader creates a Loader with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewLoader(numWorkers int, log zerolog.Logger) *Loader {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	l := &Loader{
		workers: make([]chan job, numWorkers),
		log:     log,
	}
	for i := range l.workers {
		l.workers[i] = make(chan job, channelBuffer)
	}
	return l
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (l *Loader) Start(ctx context.Context) {
	for i, ch := range l.workers {
		go l.runWorker(ctx, i, ch)
	}
}

// Schedule queues run on the worker owning key. It never blocks and reports
// false when that worker's queue is full.
func (l *Loader) Schedule(key string, run func(context.Context)) bool {
	idx := l.shardIndex(key)
	select {
	case l.workers[idx] <- job{key: key, run: run}:
		metrics.LoaderQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return true
	default:
		metrics.LoaderJobsDroppedTotal.Inc()
		l.log.Warn().Str("key", key).Int("worker_id", idx).Msg("loader queue full")
		return false
	}
}

// shardIndex maps a key deterministically to a worker index.
func (l *Loader) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(l.workers)))
}

func (l *Loader) runWorker(ctx context.Context, id int, ch <-chan job) {
	depth := metrics.LoaderQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-ch:
			depth.Dec()
			l.run(ctx, id, j)
		}
	}
}

func (l *Loader) run(ctx context.Context, id int, j job) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Str("key", j.key).Int("worker_id", id).Msg("load job panicked")
		}
	}()
	j.run(ctx)
}
