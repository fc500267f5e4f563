package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// MaxFrameSize bounds a single message payload. Frames advertising a
// larger length are treated as protocol corruption rather than an
// allocation request.
const MaxFrameSize = 64 << 20 // 64 MiB

// frameHeaderSize is the 4-byte big-endian length prefix.
const frameHeaderSize = 4

// WriteFrame writes one length-framed message to the connection using a
// vectored write, avoiding a copy of the payload. Empty payloads produce
// a bare zero header.
func WriteFrame(conn net.Conn, payload []byte) error {
	var header [frameHeaderSize]byte
	return writeFrame(conn, &header, payload)
}

func writeFrame(conn net.Conn, lenBuf *[frameHeaderSize]byte, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame length %d exceeds maximum %d", len(payload), MaxFrameSize)
	}
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if len(payload) == 0 {
		_, err := conn.Write(lenBuf[:])
		return err
	}
	buffers := net.Buffers{lenBuf[:], payload}
	_, err := buffers.WriteTo(conn)
	return err
}

// ReadFrame reads one length-framed message, reusing buf when it is large
// enough. It returns the payload sized to the advertised length.
func ReadFrame(r io.Reader, buf []byte) ([]byte, error) {
	var header [frameHeaderSize]byte
	return readFrame(r, &header, buf)
}

func readFrame(r io.Reader, lenBuf *[frameHeaderSize]byte, buf []byte) ([]byte, error) {
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("frame length %d exceeds maximum %d", length, MaxFrameSize)
	}
	if length == 0 {
		return buf[:0], nil
	}

	if cap(buf) < int(length) {
		buf = make([]byte, length)
	}
	buf = buf[:length]
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
