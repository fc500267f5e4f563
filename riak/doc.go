// Package riak provides the client for a Riak key-value store: the
// object data model with its conflict and validity invariants, the
// asynchronous fetch/store/remove operations with their protocol buffers
// codec glue, the sibling-resolution write-back loop, and the completion
// and blocking groups callers use to join asynchronous fan-outs.
//
// The package is organized around three concerns:
//
//   - Object: a value type pairing a bucket/key with an opaque causal
//     clock and an ordered list of sibling contents. Objects returned
//     alongside an error are invalid and trap on most accessors, forcing
//     callers to check the error first.
//
//   - Client: encodes tagged protocol buffers requests, submits them to
//     a connection pool and decodes replies. When a fetch returns a
//     conflicted object and the configured resolver asks for its choice
//     to be stored, the client writes the resolution back (preserving the causal
//     clock) before invoking the caller's handler.
//
//   - CompletionGroup / BlockingGroup: small synchronization aids that
//     run a continuation exactly once after every wrapped handler has
//     fired, optionally letting a caller thread block on that moment.
package riak
