package rendezvous

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestInlineHandoffToParkedTaker verifies Offer hands items to waiting takers
func TestInlineHandoffToParkedTaker(t *testing.T) {
	q := New[int](4, 2)

	got := make(chan int, 1)
	q.Take(func(v int) { got <- v })

	q.Offer(42)

	select {
	case v := <-got:
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("parked taker never received the item")
	}
}

// TestInlineTakeOfBufferedItem verifies Take consumes buffered items inline
func TestInlineTakeOfBufferedItem(t *testing.T) {
	q := New[int](4, 2)

	q.Offer(1)
	q.Offer(2)

	var got []int
	q.Take(func(v int) { got = append(got, v) })
	q.Take(func(v int) { got = append(got, v) })

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected FIFO [1 2], got %v", got)
	}
}

// TestItemFIFOOrder verifies buffered items leave in submission order
func TestItemFIFOOrder(t *testing.T) {
	q := New[int](16, 1)

	for i := 0; i < 10; i++ {
		q.Offer(i)
	}
	for i := 0; i < 10; i++ {
		want := i
		q.Take(func(v int) {
			if v != want {
				t.Errorf("expected %d, got %d", want, v)
			}
		})
	}
}

// TestOfferBlocksAtCapacity verifies producer back-pressure
func TestOfferBlocksAtCapacity(t *testing.T) {
	q := New[int](2, 1)

	q.Offer(1)
	q.Offer(2)

	unblocked := make(chan struct{})
	go func() {
		q.Offer(3)
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("Offer did not block at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	// Draining one item must release the producer.
	q.Take(func(int) {})

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("Offer still blocked after an item was taken")
	}
}

// TestCloseWakesBlockedProducer verifies Close releases and discards
func TestCloseWakesBlockedProducer(t *testing.T) {
	q := New[int](1, 1)
	q.Offer(1)

	unblocked := make(chan struct{})
	go func() {
		q.Offer(2)
		close(unblocked)
	}()
	time.Sleep(20 * time.Millisecond)

	q.Close()

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the blocked producer")
	}

	// Post-close operations are discards.
	q.Offer(3)
	q.Take(func(int) { t.Error("taker invoked after Close") })
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after Close, got %d items", q.Len())
	}
}

// TestNeverParkedWithWaitingTaker verifies the rendezvous invariant under
// concurrent producers and takers: every offered item reaches a taker.
func TestNeverParkedWithWaitingTaker(t *testing.T) {
	const total = 4000
	q := New[int](8, 4)

	var received atomic.Int64
	done := make(chan struct{})

	// Four takers re-arming themselves, like pool connections do.
	var rearm func(int)
	rearm = func(int) {
		if received.Add(1) == total {
			close(done)
		}
		go q.Take(rearm)
	}
	for i := 0; i < 4; i++ {
		q.Take(rearm)
	}

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < total/8; i++ {
				q.Offer(base + i)
			}
		}(p * 1000000)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("takers starved: %d/%d items delivered", received.Load(), total)
	}
	q.Close()
}

// TestTakerSideBound verifies Take blocks when the taker side is full
func TestTakerSideBound(t *testing.T) {
	q := New[int](1, 1)

	q.Take(func(int) {})

	unblocked := make(chan struct{})
	go func() {
		q.Take(func(int) {})
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("Take did not block with the taker side at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	// Feeding the parked taker frees a slot.
	q.Offer(1)

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("Take still blocked after a taker slot freed up")
	}
	q.Close()
}
