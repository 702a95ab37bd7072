package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// eventPlayer runs the orchestrator's event loop. Every queued event is
// handled to completion on the loop goroutine before the next one is taken.
//
// The queue is unbounded so posting never blocks, which matters because some
// collaborators report back synchronously from calls the loop itself makes.
type eventPlayer struct {
	mu     sync.Mutex
	queue  []eventQueueItem
	notify chan struct{}

	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool

	queuedTime metric.Float64Histogram
}

type eventQueueItem struct {
	event    loopEvent
	queuedAt time.Time
}

func newEventPlayer() *eventPlayer {
	queuedTime, err := meter.Float64Histogram(
		"orchestrator.event.queued_time",
		metric.WithDescription("Time an event spent in the orchestrator queue."),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create queued time histogram", "error", err)
	}

	return &eventPlayer{
		notify:     make(chan struct{}, 1),
		closeCh:    make(chan struct{}),
		done:       make(chan struct{}),
		queuedTime: queuedTime,
	}
}

func (loop *eventPlayer) CanIngest() bool {
	if loop == nil {
		return false
	}

	select {
	case <-loop.closeCh:
		return false
	default:
		return true
	}
}

// Ingest queues event. Events queued before the loop starts are handled once
// it does.
func (loop *eventPlayer) Ingest(event loopEvent) bool {
	if !loop.CanIngest() {
		return false
	}

	loop.mu.Lock()
	loop.queue = append(loop.queue, eventQueueItem{event: event, queuedAt: time.Now()})
	loop.mu.Unlock()

	select {
	case loop.notify <- struct{}{}:
	default:
	}
	return true
}

func (loop *eventPlayer) StartLoop(ctx context.Context, handle func(context.Context, loopEvent)) (started bool) {
	if loop == nil || handle == nil || !loop.CanIngest() {
		return false
	}

	loop.startOnce.Do(func() {
		started = true
		loop.started.Store(true)
		go func() {
			defer close(loop.done)

			for {
				for {
					item, ok := loop.next()
					if !ok {
						break
					}
					if !loop.CanIngest() {
						return
					}
					loop.process(ctx, item, handle)
				}

				select {
				case <-loop.closeCh:
					return
				case <-loop.notify:
				}
			}
		}()
	})

	return started
}

func (loop *eventPlayer) next() (eventQueueItem, bool) {
	loop.mu.Lock()
	defer loop.mu.Unlock()

	if len(loop.queue) == 0 {
		return eventQueueItem{}, false
	}

	item := loop.queue[0]
	loop.queue[0] = eventQueueItem{}
	loop.queue = loop.queue[1:]
	return item, true
}

func (loop *eventPlayer) process(ctx context.Context, item eventQueueItem, handle func(context.Context, loopEvent)) {
	if loop.queuedTime != nil {
		loop.queuedTime.Record(ctx, time.Since(item.queuedAt).Seconds())
	}
	handle(ctx, item.event)
}

func (loop *eventPlayer) Stop() {
	if loop == nil {
		return
	}

	loop.endOnce.Do(func() { close(loop.closeCh) })
}

func (loop *eventPlayer) AwaitDone() {
	if loop == nil {
		return
	}

	if loop.started.Load() {
		<-loop.done
	}
}

func (loop *eventPlayer) queuedEventCount() int {
	if loop == nil {
		return 0
	}

	loop.mu.Lock()
	defer loop.mu.Unlock()
	return len(loop.queue)
}
