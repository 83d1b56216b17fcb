package cart

import (
	"context"
	"io"
	"log"
	"time"

	"parra-checkout/internal/domain"
)

type releaseTask struct {
	ref      domain.ItemRef
	quantity int
	attempt  int
}

// ReleaseQueue applies stock releases off the request path. Removal
// handlers delete the line immediately and hand the held quantity here;
// a failed release is retried a bounded number of times and then
// dropped with a log line. Under-releasing in rare failure cases costs
// a temporarily unavailable unit, never an overcommit, so unbounded
// background retries are deliberately avoided.
type ReleaseQueue struct {
	releaser   releaser
	tasks      chan releaseTask
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger
	done       chan struct{}
}

type releaser interface {
	Release(ctx context.Context, ref domain.ItemRef, quantity int) error
}

func NewReleaseQueue(r releaser, size, maxRetries int, logger *log.Logger) *ReleaseQueue {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if size <= 0 {
		size = 256
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ReleaseQueue{
		releaser:   r,
		tasks:      make(chan releaseTask, size),
		maxRetries: maxRetries,
		retryDelay: 500 * time.Millisecond,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start runs the worker until ctx is cancelled, then drains whatever is
// queued with one final attempt each.
func (q *ReleaseQueue) Start(ctx context.Context) {
	go func() {
		defer close(q.done)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case task := <-q.tasks:
						q.apply(context.Background(), task, false)
					default:
						return
					}
				}
			case task := <-q.tasks:
				q.apply(ctx, task, true)
			}
		}
	}()
}

// Enqueue hands a release to the worker. Never blocks: when the queue
// is full the release is dropped and logged, per the bounded-work
// policy above.
func (q *ReleaseQueue) Enqueue(ref domain.ItemRef, quantity int) {
	if quantity <= 0 {
		return
	}
	select {
	case q.tasks <- releaseTask{ref: ref, quantity: quantity}:
	default:
		q.logger.Printf("release queue: full, dropped release item=%s qty=%d", ref.Key(), quantity)
	}
}

func (q *ReleaseQueue) apply(ctx context.Context, task releaseTask, mayRetry bool) {
	callCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := q.releaser.Release(callCtx, task.ref, task.quantity)
	cancel()
	if err == nil {
		return
	}
	if mayRetry && task.attempt < q.maxRetries {
		task.attempt++
		q.logger.Printf("release queue: retrying item=%s qty=%d attempt=%d error=%v", task.ref.Key(), task.quantity, task.attempt, err)
		select {
		case <-ctx.Done():
		case <-time.After(q.retryDelay):
		}
		select {
		case q.tasks <- task:
			return
		default:
		}
	}
	q.logger.Printf("release queue: giving up item=%s qty=%d after %d attempts: %v", task.ref.Key(), task.quantity, task.attempt+1, err)
}

// Wait blocks until the worker has drained after Start's ctx ended.
func (q *ReleaseQueue) Wait() {
	<-q.done
}
