package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/netutil"
)

// Path is the websocket endpoint the tracker connects to.
const Path = "/landmarks"

// Server accepts a single tracker connection and keeps the latest frame.
type Server struct {
	addr     string
	log      *slog.Logger
	upgrader websocket.Upgrader
	latest   atomic.Pointer[Frame]

	mu    sync.Mutex
	ln    net.Listener
	srv   *http.Server
	conn  *websocket.Conn
	closed bool
}

// NewServer returns a server that will listen on addr (host:port).
func NewServer(addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		addr: addr,
		log:  log,
		upgrader: websocket.Upgrader{
			// The tracker page is served from a different origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start acquires the listener and serves in the background until ctx is
// done or Close is called. Only one tracker is connected at a time.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("tracker: listen %s: %w", s.addr, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handle)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	s.ln = netutil.LimitListener(ln, 1)
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("tracker server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	s.log.Info("tracker listening", "addr", ln.Addr().String(), "path", Path)
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Latest returns the most recent well-formed frame.
func (s *Server) Latest() (Frame, bool) {
	f := s.latest.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// Close stops the listener and drops the tracker connection.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.srv != nil {
		return s.srv.Close()
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("tracker upgrade failed", "error", err)
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()
	s.log.Info("tracker connected", "remote", r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		_ = conn.Close()
		s.log.Info("tracker disconnected", "remote", r.RemoteAddr)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("tracker read ended", "error", err)
			}
			return
		}
		f, err := ParseFrame(msg)
		if err != nil {
			s.log.Warn("dropping malformed frame", "error", err)
			continue
		}
		s.latest.Store(&f)
	}
}
