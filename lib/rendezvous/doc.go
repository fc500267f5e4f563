// Package rendezvous implements a two-sided bounded queue that pairs
// produced items with registered takers.
//
// One side holds items waiting for a taker, the other holds takers
// waiting for an item; at any moment at least one side is empty. Offer
// blocks the producer while the item side is at capacity, which is how
// the connection pool applies back-pressure to application goroutines.
// Take either consumes an item inline or parks a continuation, bounded
// by the taker capacity. Close wakes every blocked goroutine and turns
// both operations into discards.
package rendezvous
