package transport

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/cristicbz/riakgo/lib/barrier"
	"github.com/cristicbz/riakgo/lib/executor"
	"github.com/cristicbz/riakgo/lib/rendezvous"
	"github.com/cristicbz/riakgo/rpc/common"
)

// connFactory is the connection seam: production builds LengthFramed
// connections, pool tests substitute mocks.
type connFactory func(exec *executor.Executor, endpoints []string, connectTimeoutMS int64) Conn

// Pool multiplexes packaged requests over a fixed set of connections to
// one logical endpoint. Submissions beyond the high watermark block the
// caller; a failed name resolution turns the pool into a terminal drain
// that completes every request with address_not_available.
type Pool struct {
	exec    *executor.Executor
	queue   *rendezvous.Queue[*Request]
	barrier *barrier.Barrier
	config  common.ClientConfig

	mu      sync.Mutex
	conns   []Conn
	strands []*executor.Strand
	closed  bool

	enqueued   *xsync.Counter
	dispatched *xsync.Counter
	completed  *xsync.Counter
	failed     *xsync.Counter
}

// PoolStats is a point-in-time snapshot of the pool counters.
type PoolStats struct {
	Enqueued   int64
	Dispatched int64
	Completed  int64
	Failed     int64
}

// NewPool creates a pool for the configured endpoint. Name resolution
// starts immediately; connections are created once it succeeds. Requests
// submitted before then are buffered by the queue as usual.
func NewPool(config common.ClientConfig, exec *executor.Executor) *Pool {
	return newPool(config, exec, newLengthFramedConn, resolveEndpoints)
}

func newPool(config common.ClientConfig, exec *executor.Executor, factory connFactory, resolve resolveFunc) *Pool {
	p := &Pool{
		exec:       exec,
		queue:      rendezvous.New[*Request](config.HighWatermark, config.MaxConnections),
		barrier:    barrier.New(),
		config:     config,
		enqueued:   xsync.NewCounter(),
		dispatched: xsync.NewCounter(),
		completed:  xsync.NewCounter(),
		failed:     xsync.NewCounter(),
	}

	resolve(config.Host, config.Port, func(endpoints []string, err error) {
		if err != nil {
			log.WithError(err).WithField("host", config.Host).Error("endpoint resolution failed")
			p.drainOne(err)
			return
		}
		p.createConnections(endpoints, factory)
	})
	return p
}

func newLengthFramedConn(exec *executor.Executor, endpoints []string, connectTimeoutMS int64) Conn {
	return NewLengthFramed(exec, endpoints, connectTimeoutMS)
}

// AsyncSend enqueues a packaged request. Blocks the caller while the
// queue is at the high watermark; discards after Close.
func (p *Pool) AsyncSend(req *Request) {
	p.enqueued.Inc()
	p.queue.Offer(req)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Enqueued:   p.enqueued.Value(),
		Dispatched: p.dispatched.Value(),
		Completed:  p.completed.Value(),
		Failed:     p.failed.Value(),
	}
}

// Shutdown tears the pool down: the queue is closed first (parked takers
// are discarded), then every connection is shut down (draining in-flight
// protocol callbacks), then the pool barrier is drained so no user
// completion runs after Shutdown returns unless it had already started.
// Pending completions are dropped without invocation.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	conns := p.conns
	p.mu.Unlock()

	p.queue.Close()
	for _, c := range conns {
		c.Shutdown()
	}
	p.barrier.Close()
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

func (p *Pool) createConnections(endpoints []string, factory connFactory) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	for i := 0; i < p.config.MaxConnections; i++ {
		p.conns = append(p.conns, factory(p.exec, endpoints, p.config.ConnectionTimeoutMS))
		p.strands = append(p.strands, p.exec.NewStrand())
	}
	conns := p.conns
	p.mu.Unlock()

	log.WithField("connections", len(conns)).WithField("endpoints", len(endpoints)).
		Debug("pool connected")
	for i := range conns {
		p.addWorkerFor(i)
	}
}

// addWorkerFor registers connection i as a taker on the request queue.
// Called once after construction and again from every completion wrapper,
// which is what keeps exactly one parked continuation per idle connection.
func (p *Pool) addWorkerFor(i int) {
	p.queue.Take(func(req *Request) {
		p.dispatch(i, req)
	})
}

// dispatch hands a request to connection i with a wrapped completion: the
// wrapper re-arms the connection as an available taker before the user
// completion runs, so handler-initiated submits are accepted against the
// same slot without extra hops. User completions for one connection run
// through its strand, preserving per-connection completion order.
func (p *Pool) dispatch(i int, req *Request) {
	p.mu.Lock()
	conn := p.conns[i]
	strand := p.strands[i]
	p.mu.Unlock()

	real := req.OnResponse
	req.OnResponse = func(payload []byte, err error) {
		p.barrier.Run(func() {
			strand.Post(func() {
				p.barrier.Run(func() {
					// Re-arm before invoking: the next request for this
					// slot can only be dispatched from here, which also
					// keeps completion order per connection.
					p.addWorkerFor(i)
					p.completed.Inc()
					real(payload, err)
				})
			})
		})
	}

	p.dispatched.Inc()
	conn.AsyncSend(req)
}

// --------------------------------------------------------------------------
// Resolution-failure state
// --------------------------------------------------------------------------

// drainOne takes a single request from the queue and completes it with
// the resolution error, then re-installs itself via the executor so a
// backlog of buffered requests drains iteratively. The loop ends when the
// queue is closed, giving at-most-one error per submitted request with
// back-pressure intact.
func (p *Pool) drainOne(resolutionErr error) {
	p.queue.Take(func(req *Request) {
		handler := req.OnResponse
		p.exec.Post(func() {
			p.barrier.Run(func() {
				p.failed.Inc()
				handler(nil, resolutionErr)
			})
		})
		p.exec.Post(func() {
			p.drainOne(resolutionErr)
		})
	})
}
