//go:build linux

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// epollReactor is the epoll(7)-backed Reactor, adapted from the original's
// Epoller (src/server/epoller.hpp), which wraps epoll_create/epoll_ctl/
// epoll_wait behind AddFd/ModFd/DelFd/Wait/GetEventFd/GetEvents.
type epollReactor struct {
	epfd   int
	events []unix.EpollEvent
}

// New creates an epoll instance that reports up to maxEvents ready
// descriptors per Wait call. The events slice is allocated once here so Wait
// never allocates on the hot path.
func New(maxEvents int) (Reactor, error) {
	if maxEvents <= 0 {
		maxEvents = 1
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epollReactor{
		epfd:   epfd,
		events: make([]unix.EpollEvent, maxEvents),
	}, nil
}

func toEpoll(mask EventMask) uint32 {
	var e uint32
	if mask.Has(Readable) {
		e |= unix.EPOLLIN
	}
	if mask.Has(Writable) {
		e |= unix.EPOLLOUT
	}
	if mask.Has(PeerClosed) {
		e |= unix.EPOLLRDHUP
	}
	if mask.Has(Err) {
		e |= unix.EPOLLERR | unix.EPOLLHUP
	}
	if mask.Has(EdgeTriggered) {
		e |= unix.EPOLLET
	}
	if mask.Has(OneShot) {
		e |= unix.EPOLLONESHOT
	}
	return e
}

func fromEpoll(e uint32) EventMask {
	var mask EventMask
	if e&unix.EPOLLIN != 0 {
		mask |= Readable
	}
	if e&unix.EPOLLOUT != 0 {
		mask |= Writable
	}
	if e&unix.EPOLLRDHUP != 0 {
		mask |= PeerClosed
	}
	if e&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		mask |= Err
	}
	return mask
}

func (r *epollReactor) Add(fd int, mask EventMask) error {
	ev := unix.EpollEvent{Events: toEpoll(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl(add, fd=%d): %w", fd, err)
	}
	return nil
}

func (r *epollReactor) Modify(fd int, mask EventMask) error {
	ev := unix.EpollEvent{Events: toEpoll(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl(mod, fd=%d): %w", fd, err)
	}
	return nil
}

func (r *epollReactor) Remove(fd int) error {
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("reactor: epoll_ctl(del, fd=%d): %w", fd, err)
	}
	return nil
}

func (r *epollReactor) Wait(timeoutMs int) (int, error) {
	n, err := unix.EpollWait(r.epfd, r.events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("reactor: epoll_wait: %w", err)
	}
	return n, nil
}

func (r *epollReactor) EventFd(i int) int {
	return int(r.events[i].Fd)
}

func (r *epollReactor) EventMask(i int) EventMask {
	return fromEpoll(r.events[i].Events)
}

func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
