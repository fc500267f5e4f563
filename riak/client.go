package riak

import (
	"time"

	"github.com/cristicbz/riakgo/lib/executor"
	"github.com/cristicbz/riakgo/rpc/common"
	"github.com/cristicbz/riakgo/rpc/pbc"
	"github.com/cristicbz/riakgo/rpc/transport"
)

var log = common.PackageLogger("riak")

// FetchHandler receives the fetched object. On error the object is
// invalid apart from its bucket and key.
type FetchHandler func(obj Object, err error)

// StoreHandler receives the outcome of a store.
type StoreHandler func(err error)

// RemoveHandler receives the outcome of a remove.
type RemoveHandler func(err error)

// StoreResolvedSibling is a resolver's decision: whether the client
// should write the resolved content back before delivering the object.
type StoreResolvedSibling int

const (
	// StoreResolvedNo delivers the conflicted or locally resolved object
	// as-is; the caller is responsible for persisting a resolution.
	StoreResolvedNo StoreResolvedSibling = iota
	// StoreResolvedYes has the client put the resolved content, echoing
	// the fetched causal clock, before the handler runs.
	StoreResolvedYes
)

// SiblingResolver is the application policy applied to conflicted fetch
// results. It must leave the object resolved (exactly one sibling) when
// returning StoreResolvedYes.
type SiblingResolver func(conflicted *Object) StoreResolvedSibling

// PassThroughResolver leaves conflicts to the caller.
func PassThroughResolver(*Object) StoreResolvedSibling { return StoreResolvedNo }

// Client is a Riak client over a pool of length-framed connections. All
// operations are asynchronous; handlers run on executor workers and must
// not block them indefinitely.
type Client struct {
	ownedExec *executor.Executor
	exec      *executor.Executor
	conn      transport.Conn
	resolver  SiblingResolver

	deadlineMS int64
}

// NewClient creates a client owning its executor (managed mode), sized by
// config.WorkerThreads.
func NewClient(config common.ClientConfig, resolver SiblingResolver) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	exec := executor.New(config.WorkerThreads)
	c := newClient(transport.NewPool(config, exec), exec, resolver, config.DeadlineMS)
	c.ownedExec = exec
	return c, nil
}

// NewClientWithExecutor creates a client driven by an application-owned
// executor. config.WorkerThreads must be left at zero.
func NewClientWithExecutor(config common.ClientConfig, resolver SiblingResolver, exec *executor.Executor) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.WorkerThreads != 0 {
		return nil, common.NewError(common.ErrCGeneric,
			"worker threads may not be configured with an external executor")
	}
	if exec == nil {
		return nil, common.NewError(common.ErrCGeneric, "no executor provided")
	}
	return newClient(transport.NewPool(config, exec), exec, resolver, config.DeadlineMS), nil
}

// newClient is the seam shared by the constructors and the tests, which
// substitute a mock connection.
func newClient(conn transport.Conn, exec *executor.Executor, resolver SiblingResolver, deadlineMS int64) *Client {
	if resolver == nil {
		resolver = PassThroughResolver
	}
	return &Client{
		exec:       exec,
		conn:       conn,
		resolver:   resolver,
		deadlineMS: deadlineMS,
	}
}

// ManagesExecutor reports whether the client owns its executor.
func (c *Client) ManagesExecutor() bool { return c.ownedExec != nil }

// RunManaged blocks the calling goroutine, driving the managed executor
// until StopManaged. Calling it on an externally driven client is a
// programmer error.
func (c *Client) RunManaged() {
	if c.ownedExec == nil {
		panic("riak: RunManaged on a client with an external executor")
	}
	c.ownedExec.Run()
}

// StopManaged requests the managed executor to exit.
func (c *Client) StopManaged() {
	if c.ownedExec == nil {
		panic("riak: StopManaged on a client with an external executor")
	}
	c.ownedExec.Stop()
}

// Close shuts the connection pool down, dropping pending completions, and
// stops the managed executor when there is one.
func (c *Client) Close() {
	c.conn.Shutdown()
	if c.ownedExec != nil {
		c.ownedExec.Stop()
		c.ownedExec.Join()
	}
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// AsyncFetch retrieves the object stored under bucket/key. Conflicted
// results go through the configured sibling resolver first; depending on
// its decision the resolution is written back before handler runs.
func (c *Client) AsyncFetch(bucket, key string, handler FetchHandler) {
	started := time.Now()
	request := pbc.GetReq{
		Bucket:        bucket,
		Key:           key,
		DeletedVClock: true,
		Timeout:       c.timeoutField(),
	}
	c.send(pbc.MsgGetReq, &request, func(payload []byte, err error) {
		c.fetchWrapper(bucket, key, handler, started, payload, err)
	})
}

// AsyncFetchObject re-fetches an object's bucket/key.
func (c *Client) AsyncFetchObject(obj Object, handler FetchHandler) {
	c.AsyncFetch(obj.Bucket(), obj.Key(), handler)
}

// AsyncStore writes value under bucket/key with no causal context, the
// blind-write form used for new objects.
func (c *Client) AsyncStore(bucket, key string, value []byte, handler StoreHandler) {
	started := time.Now()
	request := pbc.PutReq{
		Bucket:  bucket,
		Key:     key,
		Content: pbc.Content{Value: value},
		Timeout: c.timeoutField(),
	}
	c.send(pbc.MsgPutReq, &request, func(payload []byte, err error) {
		var response pbc.PutResp
		err = c.parse(pbc.MsgPutResp, payload, &response, err)
		storeMetrics.observe(started, err)
		handler(err)
	})
}

// AsyncStoreObject writes an object fetched earlier, echoing its causal
// clock. Server-owned content metadata is cleared before serialisation so
// the put does not overwrite server state. Panics if the object is
// invalid or still in conflict.
func (c *Client) AsyncStoreObject(obj Object, handler StoreHandler) {
	started := time.Now()
	content := *obj.RawContent()
	content.ClearServerMeta()

	request := pbc.PutReq{
		Bucket:  obj.Bucket(),
		Key:     obj.Key(),
		VClock:  obj.VClock(),
		Content: content,
		Timeout: c.timeoutField(),
	}
	c.send(pbc.MsgPutReq, &request, func(payload []byte, err error) {
		var response pbc.PutResp
		err = c.parse(pbc.MsgPutResp, payload, &response, err)
		storeMetrics.observe(started, err)
		handler(err)
	})
}

// AsyncRemove deletes bucket/key without causal context.
func (c *Client) AsyncRemove(bucket, key string, handler RemoveHandler) {
	c.asyncRemove(pbc.DelReq{Bucket: bucket, Key: key}, handler)
}

// AsyncRemoveObject deletes an object, echoing its causal clock so the
// tombstone supersedes the fetched state.
func (c *Client) AsyncRemoveObject(obj Object, handler RemoveHandler) {
	c.asyncRemove(pbc.DelReq{Bucket: obj.Bucket(), Key: obj.Key(), VClock: obj.VClock()}, handler)
}

func (c *Client) asyncRemove(request pbc.DelReq, handler RemoveHandler) {
	started := time.Now()
	c.send(pbc.MsgDelReq, &request, func(payload []byte, err error) {
		var response pbc.DelResp
		err = c.parse(pbc.MsgDelResp, payload, &response, err)
		removeMetrics.observe(started, err)
		handler(err)
	})
}

// --------------------------------------------------------------------------
// Fetch post-processing
// --------------------------------------------------------------------------

func (c *Client) fetchWrapper(bucket, key string, handler FetchHandler, started time.Time, payload []byte, err error) {
	var response pbc.GetResp
	err = c.parse(pbc.MsgGetResp, payload, &response, err)
	if err != nil {
		fetchMetrics.observe(started, err)
		handler(newInvalidObject(bucket, key), err)
		return
	}

	if len(response.VClock) == 0 {
		// The object has never existed: deliver a valid absent object.
		fetchMetrics.observe(started, nil)
		handler(NewObject(bucket, key), nil)
		return
	}

	fetched := newObjectFromResponse(bucket, key, response.VClock, response.Content)
	if fetched.InConflict() && c.resolver(&fetched) == StoreResolvedYes {
		c.storeResolution(fetched, handler, started)
		return
	}

	fetchMetrics.observe(started, nil)
	handler(fetched, nil)
}

// storeResolution writes a resolver's choice back before the caller sees
// the object. The put echoes the fetched clock and asks for the head only,
// so success just installs the new clock on the resolved object.
func (c *Client) storeResolution(resolved Object, handler FetchHandler, started time.Time) {
	content := *resolved.RawContent()
	if !resolved.Exists() {
		// The resolver chose a tombstone: keep it deleted.
		content.Deleted = true
	}
	request := pbc.PutReq{
		Bucket:     resolved.Bucket(),
		Key:        resolved.Key(),
		VClock:     resolved.VClock(),
		Content:    content,
		ReturnHead: true,
		Timeout:    c.timeoutField(),
	}

	c.send(pbc.MsgPutReq, &request, func(payload []byte, err error) {
		var response pbc.PutResp
		err = c.parse(pbc.MsgPutResp, payload, &response, err)
		switch {
		case err != nil:
			resolved.markInvalid()
		case len(response.VClock) == 0 || len(response.Content) > 1:
			// The write-back did not converge to a single content.
			resolved.markInvalid()
			err = common.NewError(common.ErrCTryAgain,
				"sibling resolution did not converge")
		default:
			resolved.setVClock(response.VClock)
		}
		resolveMetrics.observe(started, err)
		fetchMetrics.observe(started, err)
		handler(resolved, err)
	})
}

// --------------------------------------------------------------------------
// Codec glue
// --------------------------------------------------------------------------

// send packages a tagged request and submits it to the pool. The handler
// is invoked exactly once with the raw response payload or an error.
func (c *Client) send(code pbc.MessageCode, message pbc.Message, handler transport.Handler) {
	payload := pbc.EncodeTagged(code, message)
	c.conn.AsyncSend(transport.NewRequest(payload, c.deadlineMS, handler))
}

// parse decodes a tagged response into message. A server error response
// maps to protocol_error; an unexpected tag or unparseable payload maps
// to io_error. A prior transport error passes through untouched.
func (c *Client) parse(code pbc.MessageCode, payload []byte, message pbc.Message, err error) error {
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return common.NewError(common.ErrCIOError, "empty response frame")
	}

	tag := pbc.MessageCode(payload[0])
	body := payload[1:]

	if tag == pbc.MsgErrorResp {
		var errResp pbc.ErrorResp
		if decodeErr := errResp.Unmarshal(body); decodeErr != nil {
			return common.WrapError(common.ErrCIOError, "unparseable error response", decodeErr)
		}
		log.WithField("errcode", errResp.ErrCode).Warnf("server error: %s", errResp.ErrMsg)
		return common.NewErrorf(common.ErrCProtocolError, "server error: %s", errResp.ErrMsg)
	}
	if tag != code {
		return common.NewErrorf(common.ErrCIOError,
			"unexpected response tag %s, expected %s", tag, code)
	}
	if decodeErr := message.Unmarshal(body); decodeErr != nil {
		return common.WrapError(common.ErrCIOError, "unparseable response payload", decodeErr)
	}
	return nil
}

// timeoutField is the deadline forwarded inside the protocol message; the
// same budget is enforced locally by the connection.
func (c *Client) timeoutField() uint32 {
	if c.deadlineMS == common.NoDeadline {
		return 0
	}
	return uint32(c.deadlineMS)
}
