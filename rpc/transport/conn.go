package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cristicbz/riakgo/lib/barrier"
	"github.com/cristicbz/riakgo/lib/executor"
	"github.com/cristicbz/riakgo/rpc/common"
)

var log = common.PackageLogger("transport")

// DefaultConnectionTimeoutMS is the per-endpoint connect budget used when
// a connection is created without an explicit one.
const DefaultConnectionTimeoutMS = common.DefaultConnectionTimeoutMS

// LengthFramed is a single-socket protocol connection. It owns at most
// one in-flight request; submitting a second request before the first
// completes is a programmer error and panics. All protocol work runs on
// a dedicated goroutine; terminal completions are posted to the shared
// executor so user handlers never block protocol progress.
type LengthFramed struct {
	exec      *executor.Executor
	endpoints []string

	connectTimeout time.Duration
	accepts        atomic.Bool
	barrier        *barrier.Barrier

	requests chan *Request
	stop     chan struct{}
	stopOnce sync.Once
	loopDone sync.WaitGroup

	// sock is written by the request goroutine and closed from Shutdown,
	// hence the mutex. All reads and writes happen on the request
	// goroutine.
	sockMu sync.Mutex
	sock   net.Conn

	lenBuf [frameHeaderSize]byte
}

// NewLengthFramed creates an idle connection over the given resolved
// endpoints. The socket is not opened until the first request arrives.
// connectTimeoutMS bounds each connect attempt.
func NewLengthFramed(exec *executor.Executor, endpoints []string, connectTimeoutMS int64) *LengthFramed {
	c := &LengthFramed{
		exec:           exec,
		endpoints:      endpoints,
		connectTimeout: time.Duration(connectTimeoutMS) * time.Millisecond,
		barrier:        barrier.New(),
		requests:       make(chan *Request, 1),
		stop:           make(chan struct{}),
	}
	c.accepts.Store(true)

	c.loopDone.Add(1)
	go func() {
		defer c.loopDone.Done()
		c.loop()
	}()
	return c
}

// AcceptsRequest reports whether the connection is idle. Used by the pool
// as the cross-goroutine dispatch signal.
func (c *LengthFramed) AcceptsRequest() bool {
	return c.accepts.Load()
}

// AsyncSend submits a request. The connection must be idle; a violation
// means two requests were dispatched to one connection and panics.
func (c *LengthFramed) AsyncSend(req *Request) {
	if !c.accepts.CompareAndSwap(true, false) {
		panic("transport: AsyncSend on a connection with a request in flight")
	}
	select {
	case c.requests <- req:
	case <-c.stop:
		// Shut down concurrently with the submit: the request is dropped,
		// matching the wrapped-callback no-op contract.
	}
}

// Shutdown stops the request goroutine, closes the socket (unblocking any
// in-flight I/O) and drains the barrier so that no completion callback
// runs after Shutdown returns unless it had already started.
func (c *LengthFramed) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.closeSocket()
		c.loopDone.Wait()
		c.barrier.Close()
	})
}

// --------------------------------------------------------------------------
// Request processing
// --------------------------------------------------------------------------

func (c *LengthFramed) loop() {
	for {
		select {
		case <-c.stop:
			return
		case req := <-c.requests:
			c.process(req)
		}
	}
}

// process drives one request through connect-write-read and delivers the
// terminal result exactly once.
func (c *LengthFramed) process(req *Request) {
	payload, err := c.roundTrip(req)
	if err != nil {
		// Failure semantics: drop the socket so the next request
		// reconnects.
		c.closeSocket()
	}

	handler := req.OnResponse

	// Re-arm before posting: a handler may submit against this connection
	// without an extra hop.
	c.accepts.Store(true)
	c.exec.Post(func() {
		c.barrier.Run(func() {
			handler(payload, err)
		})
	})
}

func (c *LengthFramed) roundTrip(req *Request) ([]byte, error) {
	sock, err := c.connect()
	if err != nil {
		return nil, err
	}

	if err := writeFrame(sock, &c.lenBuf, req.Payload); err != nil {
		return nil, mapTransportError(err)
	}

	// The request deadline is a total read budget measured from write
	// completion.
	var deadline time.Time
	if req.DeadlineMS != NoDeadline {
		deadline = time.Now().Add(time.Duration(req.DeadlineMS) * time.Millisecond)
	}
	if err := sock.SetReadDeadline(deadline); err != nil {
		return nil, mapTransportError(err)
	}

	// The response buffer is owned by the completion once delivered, so
	// each response reads into a fresh allocation; only the length prefix
	// buffer is reused across requests.
	payload, err := readFrame(sock, &c.lenBuf, nil)
	if err != nil {
		return nil, mapTransportError(err)
	}
	return payload, nil
}

// connect returns the open socket, dialling through the endpoint list in
// order when there is none. Every endpoint failing maps to
// connection_refused.
func (c *LengthFramed) connect() (net.Conn, error) {
	c.sockMu.Lock()
	sock := c.sock
	c.sockMu.Unlock()
	if sock != nil {
		return sock, nil
	}

	for _, endpoint := range c.endpoints {
		select {
		case <-c.stop:
			return nil, common.NewError(common.ErrCNotConnected, "connection shut down")
		default:
		}

		conn, err := net.DialTimeout("tcp", endpoint, c.connectTimeout)
		if err != nil {
			log.WithError(err).WithField("endpoint", endpoint).Debug("connect attempt failed")
			continue
		}

		c.sockMu.Lock()
		select {
		case <-c.stop:
			c.sockMu.Unlock()
			conn.Close()
			return nil, common.NewError(common.ErrCNotConnected, "connection shut down")
		default:
		}
		c.sock = conn
		c.sockMu.Unlock()
		return conn, nil
	}

	return nil, common.NewErrorf(common.ErrCConnectionRefused,
		"all %d endpoints refused the connection", len(c.endpoints))
}

func (c *LengthFramed) closeSocket() {
	c.sockMu.Lock()
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
	}
	c.sockMu.Unlock()
}

// --------------------------------------------------------------------------
// Error mapping
// --------------------------------------------------------------------------

// mapTransportError translates raw transport failures into the error
// taxonomy: eof becomes not_connected, timer expiry becomes timed_out and
// everything else keeps its native value under the generic code.
func mapTransportError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return common.WrapError(common.ErrCNotConnected, "peer closed the connection", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.WrapError(common.ErrCTimedOut, "request deadline exceeded", err)
	}
	return common.WrapError(common.ErrCGeneric, "transport failure", err)
}
