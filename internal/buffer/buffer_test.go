package buffer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendConsumeRoundTrip(t *testing.T) {
	b := New(8)
	b.AppendString("hello")
	require.Equal(t, 5, b.Readable())
	assert.Equal(t, "hello", string(b.Peek()))

	b.Consume(5)
	assert.Equal(t, 0, b.Readable())
	assert.Equal(t, 0, b.Writable()-b.Cap())
}

func TestAppendGrowsPastCapacity(t *testing.T) {
	b := New(4)
	b.AppendString("this is longer than four bytes")
	assert.Equal(t, "this is longer than four bytes", string(b.Peek()))
}

func TestAppendCompactsBeforeGrowing(t *testing.T) {
	b := New(16)
	b.AppendString("0123456789") // 10 bytes written, 6 writable left
	b.Consume(8)                 // only 2 bytes readable now, but still at offset 8
	capBefore := b.Cap()

	// Needs 10 writable bytes; compaction (freeing the 8 consumed bytes) is
	// enough without growing the underlying slice.
	b.AppendString("abcdefghij")
	assert.Equal(t, capBefore, b.Cap())
	assert.Equal(t, "89abcdefghij", string(b.Peek()))
}

func TestConsumeUntil(t *testing.T) {
	b := New(16)
	b.AppendString("GET / HTTP/1.1\r\n")
	idx := 14 // position of the CRLF within the underlying slice
	b.ConsumeUntil(idx + 2)
	assert.Equal(t, 0, b.Readable())
}

func TestRetrieveAllAsString(t *testing.T) {
	b := New(16)
	b.AppendString("payload")
	s := b.RetrieveAllAsString()
	assert.Equal(t, "payload", s)
	assert.Equal(t, 0, b.Readable())
}

func TestReadFdSmallRead(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	go func() {
		_, _ = w.Write([]byte("short"))
		w.Close()
	}()

	b := New(4096)
	n, err := b.ReadFd(int(r.Fd()))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "short", string(b.Peek()))
}

func TestReadFdLargerThanWritableGrowsViaScratch(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	payload := make([]byte, 9000)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	go func() {
		_, _ = w.Write(payload)
		w.Close()
	}()

	b := New(16) // deliberately tiny so most of the read must land in scratch
	total := 0
	for total < len(payload) {
		n, err := b.ReadFd(int(r.Fd()))
		require.NoError(t, err)
		require.Greater(t, n, 0)
		total += n
	}

	assert.Equal(t, payload, []byte(b.Peek()))
}
