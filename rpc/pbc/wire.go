package pbc

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field append helpers. Optional scalar fields follow the proto2
// convention the server expects: a zero value is simply not written.

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// appendRequiredBytes writes the field even when empty; required fields
// must be present for the server to accept the message.
func appendRequiredBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendRequiredString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendUint32(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	sub := m.MarshalAppend(nil)
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, sub)
}

// --------------------------------------------------------------------------
// Decode helpers
// --------------------------------------------------------------------------

// fieldFunc consumes one already-identified field value from data and
// returns the number of bytes consumed, or a negative protowire error.
type fieldFunc func(num protowire.Number, typ protowire.Type, data []byte) int

// walkFields drives a protobuf decode loop: for each field it calls fn,
// which either consumes the value or returns 0 to have the field skipped.
func walkFields(data []byte, fn fieldFunc) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("pbc: malformed field tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		n = fn(num, typ, data)
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("pbc: malformed field %d: %w", num, protowire.ParseError(n))
		}
		data = data[n:]
	}
	return nil
}

func consumeBytes(data []byte, out *[]byte) int {
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return n
	}
	*out = append([]byte(nil), v...)
	return n
}

func consumeString(data []byte, out *string) int {
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return n
	}
	*out = string(v)
	return n
}

func consumeUint32(data []byte, out *uint32) int {
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return n
	}
	*out = uint32(v)
	return n
}

func consumeBool(data []byte, out *bool) int {
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return n
	}
	*out = v != 0
	return n
}

func consumeMessage(data []byte, m Message) int {
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return n
	}
	if err := m.Unmarshal(v); err != nil {
		return -1
	}
	return n
}
