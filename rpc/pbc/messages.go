package pbc

import "google.golang.org/protobuf/encoding/protowire"

// --------------------------------------------------------------------------
// Shared submessages
// --------------------------------------------------------------------------

// Pair is a key/value metadata entry (user metadata, secondary indexes).
type Pair struct {
	Key   []byte
	Value []byte
}

func (p *Pair) MarshalAppend(b []byte) []byte {
	b = appendRequiredBytes(b, 1, p.Key)
	b = appendBytes(b, 2, p.Value)
	return b
}

func (p *Pair) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeBytes(data, &p.Key)
		case num == 2 && typ == protowire.BytesType:
			return consumeBytes(data, &p.Value)
		}
		return 0
	})
}

// Link is a one-way typed reference to another object.
type Link struct {
	Bucket []byte
	Key    []byte
	Tag    []byte
}

func (l *Link) MarshalAppend(b []byte) []byte {
	b = appendBytes(b, 1, l.Bucket)
	b = appendBytes(b, 2, l.Key)
	b = appendBytes(b, 3, l.Tag)
	return b
}

func (l *Link) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeBytes(data, &l.Bucket)
		case num == 2 && typ == protowire.BytesType:
			return consumeBytes(data, &l.Key)
		case num == 3 && typ == protowire.BytesType:
			return consumeBytes(data, &l.Tag)
		}
		return 0
	})
}

// Content is one stored value together with its metadata; a fetched
// object carries one Content per sibling.
type Content struct {
	Value           []byte
	ContentType     string
	Charset         string
	ContentEncoding string
	VTag            string
	Links           []Link
	LastMod         uint32
	LastModUsecs    uint32
	UserMeta        []Pair
	Indexes         []Pair
	Deleted         bool
}

func (c *Content) MarshalAppend(b []byte) []byte {
	b = appendRequiredBytes(b, 1, c.Value)
	b = appendString(b, 2, c.ContentType)
	b = appendString(b, 3, c.Charset)
	b = appendString(b, 4, c.ContentEncoding)
	b = appendString(b, 5, c.VTag)
	for i := range c.Links {
		b = appendMessage(b, 6, &c.Links[i])
	}
	b = appendUint32(b, 7, c.LastMod)
	b = appendUint32(b, 8, c.LastModUsecs)
	for i := range c.UserMeta {
		b = appendMessage(b, 9, &c.UserMeta[i])
	}
	for i := range c.Indexes {
		b = appendMessage(b, 10, &c.Indexes[i])
	}
	b = appendBool(b, 11, c.Deleted)
	return b
}

func (c *Content) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeBytes(data, &c.Value)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(data, &c.ContentType)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(data, &c.Charset)
		case num == 4 && typ == protowire.BytesType:
			return consumeString(data, &c.ContentEncoding)
		case num == 5 && typ == protowire.BytesType:
			return consumeString(data, &c.VTag)
		case num == 6 && typ == protowire.BytesType:
			var l Link
			n := consumeMessage(data, &l)
			if n > 0 {
				c.Links = append(c.Links, l)
			}
			return n
		case num == 7 && typ == protowire.VarintType:
			return consumeUint32(data, &c.LastMod)
		case num == 8 && typ == protowire.VarintType:
			return consumeUint32(data, &c.LastModUsecs)
		case num == 9 && typ == protowire.BytesType:
			var p Pair
			n := consumeMessage(data, &p)
			if n > 0 {
				c.UserMeta = append(c.UserMeta, p)
			}
			return n
		case num == 10 && typ == protowire.BytesType:
			var p Pair
			n := consumeMessage(data, &p)
			if n > 0 {
				c.Indexes = append(c.Indexes, p)
			}
			return n
		case num == 11 && typ == protowire.VarintType:
			return consumeBool(data, &c.Deleted)
		}
		return 0
	})
}

// ClearServerMeta drops the fields the server owns before re-serialising
// a fetched content in a store request, so a put does not overwrite the
// server's bookkeeping.
func (c *Content) ClearServerMeta() {
	c.LastMod = 0
	c.LastModUsecs = 0
	c.Deleted = false
}

// --------------------------------------------------------------------------
// Get
// --------------------------------------------------------------------------

// GetReq fetches an object.
type GetReq struct {
	Bucket        string
	Key           string
	R             uint32
	PR            uint32
	BasicQuorum   bool
	NotfoundOK    bool
	IfModified    []byte
	Head          bool
	DeletedVClock bool
	Timeout       uint32
	SloppyQuorum  bool
	NVal          uint32
}

func (m *GetReq) MarshalAppend(b []byte) []byte {
	b = appendRequiredString(b, 1, m.Bucket)
	b = appendRequiredString(b, 2, m.Key)
	b = appendUint32(b, 3, m.R)
	b = appendUint32(b, 4, m.PR)
	b = appendBool(b, 5, m.BasicQuorum)
	b = appendBool(b, 6, m.NotfoundOK)
	b = appendBytes(b, 7, m.IfModified)
	b = appendBool(b, 8, m.Head)
	b = appendBool(b, 9, m.DeletedVClock)
	b = appendUint32(b, 10, m.Timeout)
	b = appendBool(b, 11, m.SloppyQuorum)
	b = appendUint32(b, 12, m.NVal)
	return b
}

func (m *GetReq) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(data, &m.Bucket)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(data, &m.Key)
		case num == 9 && typ == protowire.VarintType:
			return consumeBool(data, &m.DeletedVClock)
		case num == 10 && typ == protowire.VarintType:
			return consumeUint32(data, &m.Timeout)
		}
		return 0
	})
}

// GetResp is the reply to a GetReq. An empty VClock means the object has
// never existed.
type GetResp struct {
	Content   []Content
	VClock    []byte
	Unchanged bool
}

func (m *GetResp) MarshalAppend(b []byte) []byte {
	for i := range m.Content {
		b = appendMessage(b, 1, &m.Content[i])
	}
	b = appendBytes(b, 2, m.VClock)
	b = appendBool(b, 3, m.Unchanged)
	return b
}

func (m *GetResp) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			var c Content
			n := consumeMessage(data, &c)
			if n > 0 {
				m.Content = append(m.Content, c)
			}
			return n
		case num == 2 && typ == protowire.BytesType:
			return consumeBytes(data, &m.VClock)
		case num == 3 && typ == protowire.VarintType:
			return consumeBool(data, &m.Unchanged)
		}
		return 0
	})
}

// --------------------------------------------------------------------------
// Put
// --------------------------------------------------------------------------

// PutReq stores one content under a bucket/key, echoing the causal clock
// of the preceding fetch when there was one.
type PutReq struct {
	Bucket        string
	Key           string
	VClock        []byte
	Content       Content
	W             uint32
	DW            uint32
	ReturnBody    bool
	PW            uint32
	IfNotModified bool
	IfNoneMatch   bool
	ReturnHead    bool
	Timeout       uint32
	Asis          bool
	SloppyQuorum  bool
	NVal          uint32
}

func (m *PutReq) MarshalAppend(b []byte) []byte {
	b = appendRequiredString(b, 1, m.Bucket)
	b = appendString(b, 2, m.Key)
	b = appendBytes(b, 3, m.VClock)
	b = appendMessage(b, 4, &m.Content)
	b = appendUint32(b, 5, m.W)
	b = appendUint32(b, 6, m.DW)
	b = appendBool(b, 7, m.ReturnBody)
	b = appendUint32(b, 8, m.PW)
	b = appendBool(b, 9, m.IfNotModified)
	b = appendBool(b, 10, m.IfNoneMatch)
	b = appendBool(b, 11, m.ReturnHead)
	b = appendUint32(b, 12, m.Timeout)
	b = appendBool(b, 13, m.Asis)
	b = appendBool(b, 14, m.SloppyQuorum)
	b = appendUint32(b, 15, m.NVal)
	return b
}

func (m *PutReq) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(data, &m.Bucket)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(data, &m.Key)
		case num == 3 && typ == protowire.BytesType:
			return consumeBytes(data, &m.VClock)
		case num == 4 && typ == protowire.BytesType:
			return consumeMessage(data, &m.Content)
		case num == 7 && typ == protowire.VarintType:
			return consumeBool(data, &m.ReturnBody)
		case num == 11 && typ == protowire.VarintType:
			return consumeBool(data, &m.ReturnHead)
		case num == 12 && typ == protowire.VarintType:
			return consumeUint32(data, &m.Timeout)
		}
		return 0
	})
}

// PutResp is the reply to a PutReq. With ReturnHead set, only the new
// causal clock comes back.
type PutResp struct {
	Content []Content
	VClock  []byte
	Key     string
}

func (m *PutResp) MarshalAppend(b []byte) []byte {
	for i := range m.Content {
		b = appendMessage(b, 1, &m.Content[i])
	}
	b = appendBytes(b, 2, m.VClock)
	b = appendString(b, 3, m.Key)
	return b
}

func (m *PutResp) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			var c Content
			n := consumeMessage(data, &c)
			if n > 0 {
				m.Content = append(m.Content, c)
			}
			return n
		case num == 2 && typ == protowire.BytesType:
			return consumeBytes(data, &m.VClock)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(data, &m.Key)
		}
		return 0
	})
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// DelReq removes a bucket/key, echoing the causal clock when known.
type DelReq struct {
	Bucket       string
	Key          string
	RW           uint32
	VClock       []byte
	R            uint32
	W            uint32
	PR           uint32
	PW           uint32
	DW           uint32
	Timeout      uint32
	SloppyQuorum bool
	NVal         uint32
}

func (m *DelReq) MarshalAppend(b []byte) []byte {
	b = appendRequiredString(b, 1, m.Bucket)
	b = appendRequiredString(b, 2, m.Key)
	b = appendUint32(b, 3, m.RW)
	b = appendBytes(b, 4, m.VClock)
	b = appendUint32(b, 5, m.R)
	b = appendUint32(b, 6, m.W)
	b = appendUint32(b, 7, m.PR)
	b = appendUint32(b, 8, m.PW)
	b = appendUint32(b, 9, m.DW)
	b = appendUint32(b, 10, m.Timeout)
	b = appendBool(b, 11, m.SloppyQuorum)
	b = appendUint32(b, 12, m.NVal)
	return b
}

func (m *DelReq) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(data, &m.Bucket)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(data, &m.Key)
		case num == 4 && typ == protowire.BytesType:
			return consumeBytes(data, &m.VClock)
		case num == 10 && typ == protowire.VarintType:
			return consumeUint32(data, &m.Timeout)
		}
		return 0
	})
}

// DelResp is the (empty) reply to a DelReq.
type DelResp struct{}

func (m *DelResp) MarshalAppend(b []byte) []byte { return b }

func (m *DelResp) Unmarshal(data []byte) error {
	return walkFields(data, func(protowire.Number, protowire.Type, []byte) int { return 0 })
}

// --------------------------------------------------------------------------
// Error
// --------------------------------------------------------------------------

// ErrorResp is the server-side failure reply, valid for any request code.
type ErrorResp struct {
	ErrMsg  []byte
	ErrCode uint32
}

func (m *ErrorResp) MarshalAppend(b []byte) []byte {
	b = appendRequiredBytes(b, 1, m.ErrMsg)
	b = appendUint32(b, 2, m.ErrCode)
	return b
}

func (m *ErrorResp) Unmarshal(data []byte) error {
	return walkFields(data, func(num protowire.Number, typ protowire.Type, data []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeBytes(data, &m.ErrMsg)
		case num == 2 && typ == protowire.VarintType:
			return consumeUint32(data, &m.ErrCode)
		}
		return 0
	})
}
