package transport

import (
	"github.com/cristicbz/riakgo/rpc/common"
)

// Handler consumes the terminal result of a request: the raw response
// payload on success, or a non-nil error. It is invoked exactly once per
// request, on an executor worker.
type Handler func(payload []byte, err error)

// Request is a packaged request: an opaque payload, a total read deadline
// and the completion to invoke. The request is owned by the queue until a
// connection picks it up, then by that connection until the completion
// fires.
type Request struct {
	Payload    []byte
	DeadlineMS int64
	OnResponse Handler
}

// NewRequest packages a payload with the given deadline and completion.
func NewRequest(payload []byte, deadlineMS int64, onResponse Handler) *Request {
	return &Request{Payload: payload, DeadlineMS: deadlineMS, OnResponse: onResponse}
}

// Conn is the dispatch point shared by single connections and the pool,
// so the pool can be exercised against a mock connection.
type Conn interface {
	// AsyncSend takes ownership of the request and eventually invokes its
	// completion exactly once.
	AsyncSend(req *Request)
	// Shutdown cancels protocol progress and blocks until in-flight
	// callbacks have completed or been dropped.
	Shutdown()
}

// NoDeadline disables the per-request read deadline.
const NoDeadline = common.NoDeadline
