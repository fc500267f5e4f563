// Package pbc implements the subset of the Riak protocol buffers API the
// client speaks: the message-code registry and hand-rolled wire codecs
// for the get, put and delete message pairs plus the error response.
//
// Every on-wire message is a single code byte followed by the protobuf
// encoding of the corresponding message. The codecs are written directly
// against google.golang.org/protobuf/encoding/protowire rather than
// generated code: the message set is small and frozen, and a hand-rolled
// codec avoids carrying a code generator for ten messages. Unknown
// fields are skipped on decode so newer servers remain readable.
package pbc
