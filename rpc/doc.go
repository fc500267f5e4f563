// Package rpc groups the wire-facing layers of the Riak client. It acts
// as the communication substrate between the high-level client and a
// Riak node's protocol buffers API.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures shared across the client, including
//     the ClientConfig, the error taxonomy surfaced to callers and the
//     logging facade.
//
//   - pbc: The message-code registry and hand-rolled protocol buffers
//     codecs for the get, put and delete message pairs.
//
//   - transport: The length-framed single-socket connection state
//     machine and the connection pool dispatching packaged requests to
//     idle connections with back-pressure.
package rpc
