package riaktest

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cristicbz/riakgo/rpc/common"
	"github.com/cristicbz/riakgo/rpc/pbc"
	"github.com/cristicbz/riakgo/rpc/transport"
)

var log = common.PackageLogger("riaktest")

// entry is one stored object: a causal clock and its sibling contents.
type entry struct {
	vclock   []byte
	siblings []pbc.Content
}

// Server is an in-memory node speaking the framed protocol buffers API.
type Server struct {
	listener net.Listener

	mu      sync.Mutex
	data    map[string]*entry
	clock   uint64
	nextErr *pbc.ErrorResp
	nextPut *pbc.PutResp

	replyDelay atomic.Int64 // nanoseconds
	dropNext   atomic.Bool
	accepted   atomic.Int64
}

// Start listens on a random loopback port and begins serving.
func Start() (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("riaktest: listen failed: %v", err)
	}
	s := &Server{
		listener: listener,
		data:     make(map[string]*entry),
	}
	go s.serve()
	return s, nil
}

// Addr returns the listening address as host:port.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Host returns the listening host and port separately, convenient for a
// ClientConfig.
func (s *Server) Host() (string, uint16) {
	addr := s.listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), uint16(addr.Port)
}

// Close stops accepting connections. In-flight handlers finish with their
// connections.
func (s *Server) Close() {
	s.listener.Close()
}

// Accepted returns the number of connections the server has accepted,
// for assertions on socket reuse.
func (s *Server) Accepted() int64 { return s.accepted.Load() }

// SetReplyDelay makes every subsequent reply wait d before being written.
func (s *Server) SetReplyDelay(d time.Duration) {
	s.replyDelay.Store(int64(d))
}

// FailNextWith answers the next request with a server error response.
func (s *Server) FailNextWith(errmsg string, errcode uint32) {
	s.mu.Lock()
	s.nextErr = &pbc.ErrorResp{ErrMsg: []byte(errmsg), ErrCode: errcode}
	s.mu.Unlock()
}

// ScriptPutResp forces the next put to be answered with the given
// response, bypassing the store. Used to exercise degenerate resolution
// replies (empty clock, multiple contents).
func (s *Server) ScriptPutResp(resp pbc.PutResp) {
	s.mu.Lock()
	s.nextPut = &resp
	s.mu.Unlock()
}

// DropNextConnection closes the connection handling the next request
// instead of replying.
func (s *Server) DropNextConnection() {
	s.dropNext.Store(true)
}

// InjectSiblings stores divergent contents under bucket/key, giving the
// entry a fresh clock. The next fetch returns them all.
func (s *Server) InjectSiblings(bucket, key string, values ...[]byte) {
	siblings := make([]pbc.Content, 0, len(values))
	for _, v := range values {
		siblings = append(siblings, pbc.Content{Value: v})
	}
	s.mu.Lock()
	s.data[objectKey(bucket, key)] = &entry{
		vclock:   s.newClockLocked(),
		siblings: siblings,
	}
	s.mu.Unlock()
}

// InjectContents is InjectSiblings for full content records, letting
// tests stage tombstoned or metadata-carrying siblings.
func (s *Server) InjectContents(bucket, key string, contents ...pbc.Content) {
	s.mu.Lock()
	s.data[objectKey(bucket, key)] = &entry{
		vclock:   s.newClockLocked(),
		siblings: append([]pbc.Content(nil), contents...),
	}
	s.mu.Unlock()
}

// Value returns the stored single value for bucket/key, for assertions.
func (s *Server) Value(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[objectKey(bucket, key)]
	if !ok || len(e.siblings) != 1 {
		return nil, false
	}
	return e.siblings[0].Value, true
}

// --------------------------------------------------------------------------
// Serving
// --------------------------------------------------------------------------

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.accepted.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	for {
		payload, err := transport.ReadFrame(conn, nil)
		if err != nil {
			return
		}
		if s.dropNext.CompareAndSwap(true, false) {
			return
		}

		response, err := s.handleRequest(payload)
		if err != nil {
			log.WithError(err).Debug("malformed request")
			return
		}

		if delay := time.Duration(s.replyDelay.Load()); delay > 0 {
			time.Sleep(delay)
		}
		if err := transport.WriteFrame(conn, response); err != nil {
			return
		}
	}
}

func (s *Server) handleRequest(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	code := pbc.MessageCode(payload[0])
	body := payload[1:]

	s.mu.Lock()
	if s.nextErr != nil {
		resp := s.nextErr
		s.nextErr = nil
		s.mu.Unlock()
		return pbc.EncodeTagged(pbc.MsgErrorResp, resp), nil
	}
	s.mu.Unlock()

	switch code {
	case pbc.MsgGetReq:
		return s.handleGet(body)
	case pbc.MsgPutReq:
		return s.handlePut(body)
	case pbc.MsgDelReq:
		return s.handleDel(body)
	default:
		resp := pbc.ErrorResp{ErrMsg: []byte(fmt.Sprintf("unsupported message code %s", code))}
		return pbc.EncodeTagged(pbc.MsgErrorResp, &resp), nil
	}
}

func (s *Server) handleGet(body []byte) ([]byte, error) {
	var req pbc.GetReq
	if err := req.Unmarshal(body); err != nil {
		return nil, err
	}

	var resp pbc.GetResp
	s.mu.Lock()
	if e, ok := s.data[objectKey(req.Bucket, req.Key)]; ok {
		resp.VClock = append([]byte(nil), e.vclock...)
		resp.Content = append([]pbc.Content(nil), e.siblings...)
	}
	s.mu.Unlock()

	return pbc.EncodeTagged(pbc.MsgGetResp, &resp), nil
}

func (s *Server) handlePut(body []byte) ([]byte, error) {
	var req pbc.PutReq
	if err := req.Unmarshal(body); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.nextPut != nil {
		resp := s.nextPut
		s.nextPut = nil
		s.mu.Unlock()
		return pbc.EncodeTagged(pbc.MsgPutResp, resp), nil
	}

	vclock := s.newClockLocked()
	s.data[objectKey(req.Bucket, req.Key)] = &entry{
		vclock:   vclock,
		siblings: []pbc.Content{req.Content},
	}
	s.mu.Unlock()

	var resp pbc.PutResp
	if req.ReturnHead {
		resp.VClock = vclock
	} else if req.ReturnBody {
		resp.VClock = vclock
		resp.Content = []pbc.Content{req.Content}
	}
	return pbc.EncodeTagged(pbc.MsgPutResp, &resp), nil
}

func (s *Server) handleDel(body []byte) ([]byte, error) {
	var req pbc.DelReq
	if err := req.Unmarshal(body); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.data, objectKey(req.Bucket, req.Key))
	s.mu.Unlock()

	return pbc.EncodeTagged(pbc.MsgDelResp, &pbc.DelResp{}), nil
}

// newClockLocked mints the next opaque causal clock. Callers hold s.mu.
func (s *Server) newClockLocked() []byte {
	s.clock++
	return []byte(fmt.Sprintf("clock-%d", s.clock))
}

func objectKey(bucket, key string) string {
	return bucket + "\x00" + key
}
