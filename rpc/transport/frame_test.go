package transport

import (
	"bytes"
	"net"
	"testing"
)

// TestFrameRoundTrip verifies length-framed payloads survive byte-for-byte
// across sizes from empty up to 16 MiB.
func TestFrameRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 3, 255, 4096, 1 << 20, 16 << 20}

	for _, size := range sizes {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i * 31)
		}

		client, server := net.Pipe()
		errCh := make(chan error, 1)
		go func() {
			errCh <- WriteFrame(client, payload)
		}()

		got, err := ReadFrame(server, nil)
		if err != nil {
			t.Fatalf("size %d: read failed: %v", size, err)
		}
		if werr := <-errCh; werr != nil {
			t.Fatalf("size %d: write failed: %v", size, werr)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("size %d: payload mangled", size)
		}
		client.Close()
		server.Close()
	}
}

// TestFrameBufferReuse verifies a large enough scratch buffer is reused
func TestFrameBufferReuse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go WriteFrame(client, []byte("abc"))

	scratch := make([]byte, 16)
	got, err := ReadFrame(server, scratch)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if &got[0] != &scratch[0] {
		t.Fatal("scratch buffer not reused")
	}
	if string(got) != "abc" {
		t.Fatalf("unexpected payload %q", got)
	}
}

// TestFrameRejectsOversizedLength verifies corrupt headers do not allocate
func TestFrameRejectsOversizedLength(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go client.Write([]byte{0xff, 0xff, 0xff, 0xff})

	if _, err := ReadFrame(server, nil); err == nil {
		t.Fatal("oversized frame length accepted")
	}
}
