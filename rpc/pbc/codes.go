package pbc

import "fmt"

// --------------------------------------------------------------------------
// Message Code Definition
// --------------------------------------------------------------------------

// MessageCode is the tag byte prefixed to every protocol buffers payload
// on the wire.
type MessageCode uint8

// Message codes used by the client. The numbering is fixed by the Riak
// protocol buffers API.
const (
	MsgErrorResp MessageCode = 0
	MsgGetReq    MessageCode = 9
	MsgGetResp   MessageCode = 10
	MsgPutReq    MessageCode = 11
	MsgPutResp   MessageCode = 12
	MsgDelReq    MessageCode = 13
	MsgDelResp   MessageCode = 14
)

// String returns the string representation of a MessageCode.
func (c MessageCode) String() string {
	switch c {
	case MsgErrorResp:
		return "ErrorResp"
	case MsgGetReq:
		return "GetReq"
	case MsgGetResp:
		return "GetResp"
	case MsgPutReq:
		return "PutReq"
	case MsgPutResp:
		return "PutResp"
	case MsgDelReq:
		return "DelReq"
	case MsgDelResp:
		return "DelResp"
	default:
		return fmt.Sprintf("MessageCode(%d)", uint8(c))
	}
}

// --------------------------------------------------------------------------
// Tagged payload helpers
// --------------------------------------------------------------------------

// Message is implemented by every codec type in this package.
type Message interface {
	MarshalAppend(b []byte) []byte
	Unmarshal(data []byte) error
}

// EncodeTagged serialises a message prefixed with its code byte. The
// result is the payload of exactly one wire frame.
func EncodeTagged(code MessageCode, m Message) []byte {
	b := make([]byte, 1, minMessageSize)
	b[0] = byte(code)
	return m.MarshalAppend(b)
}

// Preallocation for typical request sizes.
const minMessageSize = 64
