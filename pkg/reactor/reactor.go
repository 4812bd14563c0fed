// Package reactor runs the single-threaded epoll event loop that
// multiplexes every connected session over one thread, matching spec.md
// §4.6/§5: one command runs to completion before the next one, from any
// client, is dispatched. It is a direct Go port of the original
// service's reactor (epoll_create/epoll_ctl/epoll_wait driving
// per-socket accept/recv/send callbacks), using golang.org/x/sys/unix
// instead of cgo.
//
// An implementation MAY replace this loop with per-connection
// goroutines instead, provided all block-device operations are still
// serialized behind a single queue so the observable single-flight
// guarantee holds; that alternative is not implemented here; one
// faithful epoll loop is enough.
package reactor

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/toylabs/toyfs/pkg/dispatch"
	"github.com/toylabs/toyfs/pkg/session"
	"github.com/toylabs/toyfs/pkg/toyfs"
)

const (
	maxEvents = 512
	bufSize   = 4096
)

// conn is one accepted connection's reactor-owned state: its session,
// and any bytes received but not yet split into a complete line.
type conn struct {
	fd      int
	sess    *session.Session
	pending []byte
}

// Server owns the listening socket, the epoll instance, and the table
// of live connections.
type Server struct {
	fs  *toyfs.FS
	log *logrus.Entry

	epfd     int
	listenFd int
	conns    map[int]*conn
	nextID   int
}

// New creates a reactor backed by fs that logs to log. It is not bound to
// any address until Listen runs.
func New(fs *toyfs.FS, log *logrus.Entry) *Server {
	return &Server{fs: fs, log: log, conns: make(map[int]*conn)}
}

// Listen opens and binds the listening socket and the epoll instance,
// without starting to serve.
func (s *Server) Listen(addr string) error {
	host, portStr, err := splitHostPort(addr)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("reactor: bad port in %q: %w", addr, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("reactor: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: setsockopt: %w", err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: bad host %q in %q", host, addr)
	}
	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip.To4())
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, 64); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: set listen nonblocking: %w", err)
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}); err != nil {
		unix.Close(fd)
		unix.Close(epfd)
		return fmt.Errorf("reactor: epoll_ctl add listener: %w", err)
	}

	s.listenFd = fd
	s.epfd = epfd
	s.log.WithField("addr", addr).Info("listening")
	return nil
}

// Serve runs the epoll loop until it returns an unrecoverable error.
func (s *Server) Serve() error {
	events := make([]unix.EpollEvent, maxEvents)
	for {
		n, err := unix.EpollWait(s.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("reactor: epoll_wait: %w", err)
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == s.listenFd {
				s.acceptAll()
				continue
			}
			c, ok := s.conns[fd]
			if !ok {
				continue
			}
			if events[i].Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
				s.teardown(c)
				continue
			}
			s.handleReadable(c)
		}
	}
}

func (s *Server) acceptAll() {
	for {
		fd, _, err := unix.Accept(s.listenFd)
		if err != nil {
			return
		}
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fd)
			continue
		}
		s.nextID++
		c := &conn{fd: fd, sess: session.New(s.nextID)}
		s.conns[fd] = c
		if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(fd),
		}); err != nil {
			delete(s.conns, fd)
			unix.Close(fd)
			continue
		}
		s.log.WithField("session", c.sess.ID).Info("connected")
	}
}

// handleReadable reads whatever is available on c.fd, splits complete
// lines off the accumulated buffer, and dispatches each one in turn,
// flushing one response per command — matching the "single send per
// command" framing from spec.md §4.6.
func (s *Server) handleReadable(c *conn) {
	buf := make([]byte, bufSize)
	n, err := unix.Read(c.fd, buf)
	if n == 0 || (err != nil && err != unix.EAGAIN) {
		s.teardown(c)
		return
	}
	if err == unix.EAGAIN {
		return
	}

	c.pending = append(c.pending, buf[:n]...)
	for {
		idx := indexNewline(c.pending)
		if idx < 0 {
			break
		}
		lineBytes := c.pending[:idx]
		c.pending = c.pending[idx+1:]
		text := strings.TrimRight(string(lineBytes), "\r")
		if text == "" {
			continue
		}
		resp := dispatch.Dispatch(s.fs, c.sess, text, s.log)
		if err := s.writeAll(c.fd, resp.Data); err != nil {
			s.teardown(c)
			return
		}
		if text == "e" {
			s.teardown(c)
			return
		}
	}
}

func (s *Server) writeAll(fd int, data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if err != nil {
			if err == unix.EAGAIN {
				continue
			}
			return err
		}
		data = data[n:]
	}
	return nil
}

func (s *Server) teardown(c *conn) {
	unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, c.fd, nil)
	unix.Close(c.fd)
	delete(s.conns, c.fd)
	s.log.WithField("session", c.sess.ID).Info("disconnected")
}

func indexNewline(b []byte) int {
	for i, ch := range b {
		if ch == '\n' {
			return i
		}
	}
	return -1
}

func splitHostPort(addr string) (host, port string, err error) {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return "", "", fmt.Errorf("reactor: address %q must be host:port", addr)
	}
	host = addr[:i]
	if host == "" {
		host = "0.0.0.0"
	}
	return host, addr[i+1:], nil
}
