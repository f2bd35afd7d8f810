//go:build !linux

package reactor

import "errors"

// ErrUnsupported is returned by New on platforms without epoll. The reactor
// is inherently Linux-specific, mirroring the teacher pack's treatment of
// io_uring as a linux-and-cgo-gated capability with a safe stub elsewhere.
var ErrUnsupported = errors.New("reactor: epoll is only available on linux")

func New(maxEvents int) (Reactor, error) {
	return nil, ErrUnsupported
}


