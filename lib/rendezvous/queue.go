package rendezvous

import "sync"

// Queue is a bounded rendezvous queue of items and takers. Create
// instances with New.
type Queue[T any] struct {
	mu         sync.Mutex
	itemsFull  *sync.Cond
	takersFull *sync.Cond

	items  []T       // FIFO
	takers []func(T) // LIFO, idle takers need no fairness
	closed bool

	maxItems  int
	maxTakers int
}

// New creates an open queue holding at most maxItems buffered items and
// maxTakers parked continuations. Both bounds must be positive.
func New[T any](maxItems, maxTakers int) *Queue[T] {
	if maxItems <= 0 || maxTakers <= 0 {
		panic("rendezvous: queue bounds must be positive")
	}
	q := &Queue[T]{maxItems: maxItems, maxTakers: maxTakers}
	q.itemsFull = sync.NewCond(&q.mu)
	q.takersFull = sync.NewCond(&q.mu)
	return q
}

// Offer inserts an item. If a taker is parked the item is handed to it
// directly, invoking the continuation on the caller's goroutine without
// holding the queue lock. Otherwise the item is buffered; when the buffer
// is at capacity the caller blocks until space frees up. After Close the
// item is discarded.
func (q *Queue[T]) Offer(item T) {
	q.mu.Lock()
	for {
		if q.closed {
			q.mu.Unlock()
			return
		}
		if len(q.takers) > 0 {
			wasFull := len(q.takers) == q.maxTakers
			taker := q.takers[len(q.takers)-1]
			q.takers[len(q.takers)-1] = nil
			q.takers = q.takers[:len(q.takers)-1]
			q.mu.Unlock()

			if wasFull {
				q.takersFull.Signal()
			}
			taker(item)
			return
		}
		if len(q.items) < q.maxItems {
			q.items = append(q.items, item)
			q.mu.Unlock()
			return
		}
		q.itemsFull.Wait()
	}
}

// Take consumes one item. If an item is buffered, fn runs inline on the
// caller's goroutine; otherwise fn is parked until an Offer arrives. When
// the taker side is at capacity the caller blocks until space frees up.
// After Close the call is a no-op and fn is never invoked.
func (q *Queue[T]) Take(fn func(T)) {
	q.mu.Lock()
	for {
		if q.closed {
			q.mu.Unlock()
			return
		}
		if len(q.items) > 0 {
			wasFull := len(q.items) == q.maxItems
			item := q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()

			if wasFull {
				q.itemsFull.Signal()
			}
			fn(item)
			return
		}
		if len(q.takers) < q.maxTakers {
			q.takers = append(q.takers, fn)
			q.mu.Unlock()
			return
		}
		q.takersFull.Wait()
	}
}

// Close marks the queue closed, wakes every blocked producer and taker
// and drops all buffered items and parked continuations. Subsequent
// Offer and Take calls are discards.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.items = nil
	q.takers = nil
	q.mu.Unlock()

	q.itemsFull.Broadcast()
	q.takersFull.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
