package tinyweb

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-tinyweb/internal/config"
	"github.com/behrlich/go-tinyweb/internal/constants"
	"github.com/behrlich/go-tinyweb/internal/dbpool"
	"github.com/behrlich/go-tinyweb/internal/httpserver"
	"github.com/behrlich/go-tinyweb/internal/logging"
	"github.com/behrlich/go-tinyweb/internal/reactor"
	"github.com/behrlich/go-tinyweb/internal/workerpool"
)

// Server is an HTTP/1.1 listener built from a readiness-based reactor, a
// fixed worker pool, and the httpserver request/response machinery,
// adapted from the original's WebServer (src/server/webserver.hpp).
type Server struct {
	cfg     config.Server
	srcDir  string
	querier dbpool.Querier
	logger  *logging.Logger
	observer Observer

	listenFd int
	react    reactor.Reactor
	pool     *workerpool.Pool

	listenEvent reactor.EventMask
	connEvent   reactor.EventMask

	mu     sync.Mutex
	conns  map[int]*httpserver.Conn
	closed bool
}

// NewServer builds a Server from cfg. querier serves the login/registration
// auth paths; logger and observer may be nil, in which case a synchronous
// stderr logger and a NoOpObserver are used.
func NewServer(cfg config.Server, srcDir string, querier dbpool.Querier, logger *logging.Logger, observer Observer) *Server {
	if logger == nil {
		logger, _ = logging.New(nil)
	}
	if observer == nil {
		observer = NoOpObserver{}
	}
	return &Server{
		cfg:      cfg,
		srcDir:   srcDir,
		querier:  querier,
		logger:   logger,
		observer: observer,
		conns:    make(map[int]*httpserver.Conn),
	}
}

// initEventMode resolves trigMode into listen/connection event masks,
// matching the original's InitEventMode_: 0=default(LT/LT), 1=connET,
// 2=listenET, 3(or anything else)=both ET.
func (s *Server) initEventMode() {
	s.listenEvent = reactor.PeerClosed
	s.connEvent = reactor.OneShot | reactor.PeerClosed

	switch s.cfg.TrigMode {
	case 0:
	case 1:
		s.connEvent |= reactor.EdgeTriggered
	case 2:
		s.listenEvent |= reactor.EdgeTriggered
	default:
		s.connEvent |= reactor.EdgeTriggered
		s.listenEvent |= reactor.EdgeTriggered
	}
}

func (s *Server) isConnET() bool {
	return s.connEvent.Has(reactor.EdgeTriggered)
}

func (s *Server) isListenET() bool {
	return s.listenEvent.Has(reactor.EdgeTriggered)
}

// initSocket creates, configures, binds, and listens on the server's
// listening socket, matching the original's InitSocket_.
func (s *Server) initSocket() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return WrapError("init_socket", err)
	}
	s.listenFd = fd

	linger := unix.Linger{}
	if s.cfg.OptLinger {
		linger.Onoff = 1
		linger.Linger = int32(constants.LingerTimeout.Seconds())
	}
	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &linger); err != nil {
		unix.Close(fd)
		return WrapError("set_linger", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return WrapError("set_reuseaddr", err)
	}

	addr := &unix.SockaddrInet4{Port: s.cfg.Port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return WrapError("bind", err)
	}
	if err := unix.Listen(fd, constants.ListenBacklog); err != nil {
		unix.Close(fd)
		return WrapError("listen", err)
	}

	react, err := reactor.New(constants.ReactorMaxEvents)
	if err != nil {
		unix.Close(fd)
		return WrapError("new_reactor", err)
	}
	s.react = react

	if err := s.react.Add(fd, s.listenEvent|reactor.Readable); err != nil {
		unix.Close(fd)
		return WrapError("add_listen_fd", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return WrapError("set_nonblock", err)
	}
	return nil
}

// ListenAndServe validates cfg.Port, opens the listening socket, and blocks
// running the reactor's event loop until Close is called or an
// unrecoverable error occurs. Matches the original's
// WebServer constructor + StartServer split, minus signal-driven shutdown
// (see cmd/tinywebd for the rationale).
func (s *Server) ListenAndServe() error {
	if s.cfg.Port < 1024 || s.cfg.Port > 65535 {
		return NewError("listen_and_serve", ErrCodeInvalidRequest, fmt.Sprintf("port %d out of range", s.cfg.Port))
	}

	s.initEventMode()
	if err := s.initSocket(); err != nil {
		return err
	}
	s.pool = workerpool.New(s.cfg.ThreadNum)
	s.logger.Infof("server started on port %d (trigMode=%d)", s.cfg.Port, s.cfg.TrigMode)

	// A bounded wait (rather than an indefinite one) keeps Close responsive:
	// the loop re-checks s.closed at least once a second even with no
	// socket activity.
	const pollTimeoutMs = 1000
	for {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil
		}

		n, err := s.react.Wait(pollTimeoutMs)
		if err != nil {
			return WrapError("reactor_wait", err)
		}
		for i := 0; i < n; i++ {
			fd := s.react.EventFd(i)
			mask := s.react.EventMask(i)

			switch {
			case fd == s.listenFd:
				s.dealListen()
			case mask.Has(reactor.PeerClosed) || mask.Has(reactor.Err):
				s.closeConn(fd)
			case mask.Has(reactor.Readable):
				s.dealRead(fd)
			case mask.Has(reactor.Writable):
				s.dealWrite(fd)
			default:
				s.logger.Warn("no matching event handler", "fd", fd)
			}
		}
	}
}

func (s *Server) dealListen() {
	for {
		fd, _, err := unix.Accept(s.listenFd)
		if err != nil {
			return
		}

		s.mu.Lock()
		tooMany := len(s.conns) >= constants.MaxConnections
		s.mu.Unlock()
		if tooMany {
			s.logger.Warn("server busy, rejecting connection", "fd", fd)
			unix.Write(fd, []byte("server busy!"))
			unix.Close(fd)
			if !s.isListenET() {
				return
			}
			continue
		}

		s.addClient(fd)
		s.logger.Info("accepted connection", "fd", fd)
		s.observer.ObserveAccept(fd)

		if !s.isListenET() {
			return
		}
	}
}

func (s *Server) addClient(fd int) {
	unix.SetNonblock(fd, true)
	conn := httpserver.NewConn(fd, s.srcDir, s.isConnET(), s.querier)

	s.mu.Lock()
	s.conns[fd] = conn
	s.mu.Unlock()

	s.react.Add(fd, s.connEvent|reactor.Readable)
}

func (s *Server) closeConn(fd int) {
	s.mu.Lock()
	conn, ok := s.conns[fd]
	if ok {
		delete(s.conns, fd)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	s.react.Remove(fd)
	conn.Close()
	s.observer.ObserveClose(fd)
}

func (s *Server) getConn(fd int) (*httpserver.Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[fd]
	return c, ok
}

func (s *Server) dealRead(fd int) {
	s.pool.Submit(func() { s.onRead(fd) })
}

func (s *Server) onRead(fd int) {
	conn, ok := s.getConn(fd)
	if !ok {
		return
	}
	n, err := conn.Read()
	if err == httpserver.ErrRequestTooLarge {
		s.closeConn(fd)
		return
	}
	if n <= 0 && err != unix.EAGAIN {
		s.closeConn(fd)
		return
	}
	s.onProcess(fd, conn)
}

func (s *Server) onProcess(fd int, conn *httpserver.Conn) {
	start := time.Now()
	ok, err := conn.Process()
	latency := uint64(time.Since(start).Nanoseconds())
	s.observer.ObserveRequest(0, 0, latency, err == nil)

	if ok {
		s.react.Modify(fd, s.connEvent|reactor.Writable)
	} else {
		s.react.Modify(fd, s.connEvent|reactor.Readable)
	}
}

func (s *Server) dealWrite(fd int) {
	s.pool.Submit(func() { s.onWrite(fd) })
}

func (s *Server) onWrite(fd int) {
	conn, ok := s.getConn(fd)
	if !ok {
		return
	}
	n, err := conn.Write()

	if conn.ToWriteBytes() == 0 {
		if conn.IsKeepAlive() {
			s.onProcess(fd, conn)
			return
		}
	} else if n > 0 && err == unix.EAGAIN {
		s.react.Modify(fd, s.connEvent|reactor.Writable)
		return
	}
	s.closeConn(fd)
}

// Close stops the event loop and releases the listening socket. Connections
// already accepted are left to the OS to tear down; ListenAndServe's loop
// notices within pollTimeoutMs and returns.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if s.pool != nil {
		s.pool.Close()
	}
	if s.react != nil {
		s.react.Close()
	}
	return unix.Close(s.listenFd)
}
