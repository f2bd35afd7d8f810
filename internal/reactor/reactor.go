// Package reactor wraps a readiness-based I/O multiplexer (epoll on Linux)
// behind a thin, allocation-free-on-the-hot-path interface, adapted from the
// original's Epoller (src/server/epoller.hpp) and shaped after the teacher's
// uring.Ring interface (internal/uring/interface.go in the reference pack):
// a small set of verbs plus an indexed result batch instead of a channel, so
// the caller controls exactly when and how many events are drained.
package reactor

// EventMask is a bitmask of readiness conditions and registration flags.
type EventMask uint32

const (
	// Readable fires when the descriptor has data available to read.
	Readable EventMask = 1 << iota
	// Writable fires when the descriptor can accept a write without blocking.
	Writable
	// PeerClosed fires on a half-closed peer (EPOLLRDHUP on Linux).
	PeerClosed
	// Err fires on a descriptor error or hangup (EPOLLERR/EPOLLHUP on Linux).
	Err
	// EdgeTriggered requests edge- rather than level-triggered delivery: the
	// caller must drain the descriptor until it would block.
	EdgeTriggered
	// OneShot requests that the registration be disabled after it fires once,
	// until Modify re-arms it. This is the discipline that guarantees at most
	// one worker is ever active on a connection at a time.
	OneShot
)

// Has reports whether mask contains every bit in other.
func (m EventMask) Has(other EventMask) bool {
	return m&other == other
}

// Reactor is the interface the server depends on; Linux's epoll-backed
// implementation lives in reactor_linux.go.
type Reactor interface {
	// Add registers fd for the given event mask.
	Add(fd int, mask EventMask) error
	// Modify changes fd's registered event mask (used to rearm a one-shot
	// registration and to flip between read- and write-interest).
	Modify(fd int, mask EventMask) error
	// Remove deregisters fd. Safe to call even if fd was never added.
	Remove(fd int) error
	// Wait blocks for up to timeoutMs (negative means indefinite) and
	// returns the number of ready events, readable afterward via EventFd and
	// EventMask. A timeout with no events ready returns (0, nil).
	Wait(timeoutMs int) (int, error)
	// EventFd returns the descriptor for the i'th event from the last Wait.
	EventFd(i int) int
	// EventMask returns the readiness mask for the i'th event from the last
	// Wait.
	EventMask(i int) EventMask
	// Close releases the underlying multiplexer instance.
	Close() error
}
