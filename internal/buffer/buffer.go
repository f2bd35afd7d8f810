// Package buffer implements the growable read/write byte buffer that backs
// each connection's incoming and outgoing data.
//
// A Buffer is not safe for concurrent use. Connections are only ever touched
// by one worker at a time (see the reactor's one-shot rearm discipline), so
// no internal locking is needed.
package buffer

import (
	"golang.org/x/sys/unix"
)

// scratchSize is the size of the stack scratch area used by ReadFd so that a
// single large read can succeed even when the buffer's writable region is
// small. Bytes that land in the scratch slice are copied into the buffer
// (growing it if necessary) after the read completes.
const scratchSize = 64 * 1024

// Buffer is a contiguous byte slice with two monotonic cursors: readPos marks
// the start of unread data, writePos marks the end of written data. The
// invariant 0 <= readPos <= writePos <= cap(buf) always holds.
type Buffer struct {
	buf      []byte
	readPos  int
	writePos int
}

// New creates a Buffer with the given initial capacity.
func New(initialSize int) *Buffer {
	if initialSize <= 0 {
		initialSize = 1
	}
	return &Buffer{buf: make([]byte, initialSize)}
}

// Readable returns the number of unread bytes.
func (b *Buffer) Readable() int {
	return b.writePos - b.readPos
}

// Writable returns the number of bytes that can be written without growing.
func (b *Buffer) Writable() int {
	return len(b.buf) - b.writePos
}

// Peek returns the readable region without consuming it. The returned slice
// aliases the buffer and is invalidated by the next Append/Consume/grow.
func (b *Buffer) Peek() []byte {
	return b.buf[b.readPos:b.writePos]
}

// Cap reports the buffer's total capacity.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// ensureWritable guarantees Writable() >= n, compacting in place first and
// only growing the underlying slice if compaction isn't enough.
func (b *Buffer) ensureWritable(n int) {
	if b.Writable() >= n {
		return
	}

	readable := b.Readable()
	if len(b.buf)-readable >= n {
		// Compacting (shifting the readable region to offset 0) frees enough
		// room without allocating.
		copy(b.buf, b.buf[b.readPos:b.writePos])
		b.readPos = 0
		b.writePos = readable
		return
	}

	grown := make([]byte, b.writePos+n+1)
	copy(grown, b.buf[:b.writePos])
	b.buf = grown
}

// Append copies p into the writable region, growing/compacting as needed,
// and advances writePos.
func (b *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.ensureWritable(len(p))
	copy(b.buf[b.writePos:], p)
	b.writePos += len(p)
}

// AppendString is a convenience wrapper over Append for string data, which is
// the common case when building HTTP response headers.
func (b *Buffer) AppendString(s string) {
	b.Append([]byte(s))
}

// Consume advances readPos by n, which must not exceed Readable(). When the
// buffer becomes fully drained, both cursors reset to 0 so future writes
// don't need to grow or compact.
func (b *Buffer) Consume(n int) {
	if n <= 0 {
		return
	}
	if n > b.Readable() {
		n = b.Readable()
	}
	b.readPos += n
	if b.readPos == b.writePos {
		b.readPos = 0
		b.writePos = 0
	}
}

// ConsumeUntil consumes up to an absolute index within the underlying slice,
// as returned by a search over Peek()'s result (e.g. the byte right after a
// located CRLF).
func (b *Buffer) ConsumeUntil(pos int) {
	if pos < b.readPos {
		return
	}
	b.Consume(pos - b.readPos)
}

// RetrieveAll resets both cursors without returning the data, discarding
// whatever was buffered. Used by Init to reset a reused connection record.
func (b *Buffer) RetrieveAll() {
	b.readPos = 0
	b.writePos = 0
}

// RetrieveAllAsString returns the readable region as an owned string and
// resets the cursors.
func (b *Buffer) RetrieveAllAsString() string {
	s := string(b.buf[b.readPos:b.writePos])
	b.RetrieveAll()
	return s
}

// ReadFd performs a vectored read from fd into the buffer's writable region,
// using a stack-sized scratch area as a second segment so that a single read
// syscall can drain more than is currently writable. Bytes landing in scratch
// are appended afterward, triggering the grow policy in ensureWritable.
//
// Returns the total bytes read (as reported by readv) and any error. A
// partial success followed by an error is not possible with readv's atomicity
// at the syscall boundary, so a non-nil error always comes with n <= 0 here
// (readv reports -1) and nothing is added to the buffer.
func (b *Buffer) ReadFd(fd int) (int, error) {
	var scratch [scratchSize]byte
	writable := b.Writable()

	n, err := unix.Readv(fd, [][]byte{b.buf[b.writePos:], scratch[:]})
	if n <= 0 {
		return n, err
	}

	if n <= writable {
		b.writePos += n
		return n, err
	}

	b.writePos = len(b.buf)
	overflow := n - writable
	b.Append(scratch[:overflow])
	return n, err
}
