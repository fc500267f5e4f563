// Package transport implements the wire layer of the client: a
// length-framed single-socket connection and the pool that multiplexes
// packaged requests over a fixed set of such connections.
//
// Each on-wire message is a 4-byte big-endian length followed by that
// many payload bytes, symmetrically for requests and responses. A
// LengthFramed connection owns at most one in-flight request at a time:
// it lazily connects (trying each resolved endpoint in order under a
// per-attempt budget), writes the frame, reads the reply under the
// request deadline and posts the completion to the executor. Any error
// closes the socket so the next request reconnects; retry policy lives
// above this layer.
//
// The Pool performs one-shot asynchronous endpoint resolution, creates
// its connections after the first successful resolution and pairs queued
// requests with idle connections through a bounded rendezvous queue.
// Offers beyond the high watermark block the submitting goroutine, which
// is the library's back-pressure mechanism. A failed resolution puts the
// pool into a terminal failing state in which every queued and future
// request completes with an address_not_available error.
package transport
