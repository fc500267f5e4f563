// Package common provides the data structures and utilities shared across
// the Riak client: the client configuration, the error taxonomy surfaced
// to callers, and the logging facade used by every package.
//
// The package focuses on:
//   - ClientConfig: connection-pool sizing, deadlines and executor sizing,
//     with defaults matching the protocol buffers API of a Riak node.
//   - Error / ErrorCode: a typed error value carrying one of the
//     enumerated failure kinds (transport, protocol, logical, resolution)
//     so applications can branch on the condition rather than on message
//     text. Errors compose with the standard errors.Is/errors.As.
//   - PackageLogger: a logrus-based factory tagging every entry with the
//     originating component, plus level configuration for the CLI.
package common
