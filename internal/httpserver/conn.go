package httpserver

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-tinyweb/internal/buffer"
	"github.com/behrlich/go-tinyweb/internal/constants"
	"github.com/behrlich/go-tinyweb/internal/dbpool"
)

// Conn is one client connection's read/parse/respond/write cycle, matching
// the original's HttpConn. It owns two buffers (read and write) and the
// two-entry iovec used to writev a response header alongside its mmap'd
// file body without copying the file into the write buffer.
type Conn struct {
	Fd       int
	IsET     bool
	SrcDir   string
	Querier  dbpool.Querier

	readBuf  *buffer.Buffer
	writeBuf *buffer.Buffer

	request  *Request
	response Response

	iovBase [2][]byte
	iovCnt  int
}

// NewConn wraps fd for a freshly accepted connection.
func NewConn(fd int, srcDir string, isET bool, q dbpool.Querier) *Conn {
	return &Conn{
		Fd:      fd,
		IsET:    isET,
		SrcDir:  srcDir,
		Querier: q,

		readBuf:  buffer.New(constants.DefaultBufferSize),
		writeBuf: buffer.New(constants.DefaultBufferSize),
		request:  NewRequest(),
	}
}

// IsKeepAlive reports whether the most recently parsed request asked to
// keep the connection open.
func (c *Conn) IsKeepAlive() bool {
	return c.request.IsKeepAlive()
}

// ToWriteBytes reports how many response bytes are still pending a
// successful write, matching the original's ToWriteBytes.
func (c *Conn) ToWriteBytes() int {
	return len(c.iovBase[0]) + len(c.iovBase[1])
}

// Read drains readable bytes from the socket into readBuf. In edge-triggered
// mode it loops until a read returns no data or an error (typically EAGAIN),
// since edge triggering only re-notifies on new arrivals. Returns
// ErrRequestTooLarge once readBuf holds more than constants.MaxRequestSize
// bytes, matching this port's resolution of the original's unbounded-growth
// gap.
func (c *Conn) Read() (int, error) {
	total := 0
	for {
		n, err := c.readBuf.ReadFd(c.Fd)
		if n > 0 {
			total += n
		}
		if c.readBuf.Readable() > constants.MaxRequestSize {
			return total, ErrRequestTooLarge
		}
		if n <= 0 {
			return total, err
		}
		if !c.IsET {
			return total, nil
		}
	}
}

// Process parses whatever is buffered and builds the response, matching the
// original's Process(): a successful parse yields a 200, anything else a
// 400. Returns false if readBuf held nothing to parse.
func (c *Conn) Process() (bool, error) {
	c.request.Reset()

	if c.readBuf.Readable() <= 0 {
		return false, nil
	}

	ok, err := c.request.Parse(c.readBuf, c.Querier)
	if err != nil {
		return false, err
	}

	if ok {
		c.response.Init(c.SrcDir, c.request.Path, c.request.IsKeepAlive(), 200)
	} else {
		c.response.Init(c.SrcDir, c.request.Path, false, 400)
	}

	if merr := c.response.MakeResponse(c.writeBuf); merr != nil {
		return false, merr
	}

	c.iovBase[0] = c.writeBuf.Peek()
	c.iovCnt = 1
	if f := c.response.File(); len(f) > 0 {
		c.iovBase[1] = f
		c.iovCnt = 2
	} else {
		c.iovBase[1] = nil
	}
	return true, nil
}

// Write flushes the pending iovec to the socket via writev, matching the
// original's Write(): in level-triggered mode it writes once per call
// (relying on the reactor to re-notify when writable); in edge-triggered
// mode, or while more than WritevDrainThreshold bytes remain, it keeps
// writing until the buffer drains or a write would block.
func (c *Conn) Write() (int, error) {
	total := 0
	for {
		if c.iovCnt == 0 {
			return total, nil
		}
		vecs := make([][]byte, 0, 2)
		if len(c.iovBase[0]) > 0 {
			vecs = append(vecs, c.iovBase[0])
		}
		if c.iovCnt > 1 && len(c.iovBase[1]) > 0 {
			vecs = append(vecs, c.iovBase[1])
		}
		if len(vecs) == 0 {
			c.iovCnt = 0
			return total, nil
		}

		n, err := unix.Writev(c.Fd, vecs)
		if n > 0 {
			total += n
		}
		if n <= 0 {
			return total, err
		}

		c.advance(n)
		if c.ToWriteBytes() == 0 {
			c.response.UnmapFile()
			c.iovCnt = 0
			return total, nil
		}
		if !c.IsET && c.ToWriteBytes() <= constants.WritevDrainThreshold {
			return total, nil
		}
	}
}

func (c *Conn) advance(n int) {
	if n >= len(c.iovBase[0]) {
		n -= len(c.iovBase[0])
		c.writeBuf.RetrieveAll()
		c.iovBase[0] = nil
		c.iovBase[1] = c.iovBase[1][n:]
	} else {
		c.writeBuf.Consume(n)
		c.iovBase[0] = c.iovBase[0][n:]
	}
}

// Close releases the connection's socket and any mmap'd response file.
func (c *Conn) Close() error {
	c.response.UnmapFile()
	return unix.Close(c.Fd)
}

// ErrRequestTooLarge is returned by Read when the accumulated
// request exceeds constants.MaxRequestSize.
var ErrRequestTooLarge = fmt.Errorf("httpserver: request exceeds max size of %d bytes", constants.MaxRequestSize)
