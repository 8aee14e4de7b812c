package bridge

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/maximbilan/sensclip/internal/ratelimit"
	"go.uber.org/zap"
)

// MaxLineSize bounds a single request line.
const MaxLineSize = 10 * 1024 * 1024

// Server listens on a Unix socket and routes requests to a Router.
type Server struct {
	router   Router
	listener net.Listener
	sockPath string
	limiter  *ratelimit.RateLimiter
	logger   *zap.Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLimiter rejects requests beyond the limiter's budget.
func WithLimiter(l *ratelimit.RateLimiter) ServerOption {
	return func(s *Server) { s.limiter = l }
}

// WithServerLogger sets the server logger.
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer binds a Server to sockPath. An empty path selects SocketPath().
func NewServer(sockPath string, router Router, opts ...ServerOption) (*Server, error) {
	if sockPath == "" {
		sockPath = SocketPath()
	}

	// Remove stale socket file.
	_ = os.Remove(sockPath)

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", sockPath, err)
	}
	if err := os.Chmod(sockPath, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("failed to restrict socket permissions: %w", err)
	}

	s := &Server{
		router:   router,
		listener: listener,
		sockPath: sockPath,
		logger:   zap.NewNop(),
		conns:    make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addr returns the socket path the server listens on.
func (s *Server) Addr() string {
	return s.sockPath
}

// Serve accepts connections and handles them. Blocks until the listener is
// closed, then returns nil.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.track(conn, true)
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Close shuts down the server: closes the listener and open connections,
// waits for handlers, removes the socket.
func (s *Server) Close() {
	_ = s.listener.Close()

	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	_ = os.Remove(s.sockPath)
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		if s.closed {
			_ = conn.Close()
		}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.track(conn, false)
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)

	for scanner.Scan() {
		resp := s.handleRequest(scanner.Bytes())

		data, err := json.Marshal(resp)
		if err != nil {
			data, _ = json.Marshal(Response{
				Type:    "Error",
				Code:    CodeInternal,
				Message: err.Error(),
			})
		}
		data = append(data, '\n')

		if _, err := conn.Write(data); err != nil {
			return
		}
	}
}

func (s *Server) handleRequest(line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse(CodeParseError, "parse error: "+err.Error())
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Warn("bridge request rate limited", zap.String("method", req.Method))
		return errorResponse(CodeRateLimited, "rate limit exceeded")
	}

	result, err := s.router.Call(req.Module, req.Method, req.Args)
	if err != nil {
		code := CodeInternal
		switch {
		case errors.Is(err, ErrUnknownMethod):
			code = CodeMethodNotFound
		case errors.Is(err, ErrInvalidParams):
			code = CodeInvalidParams
		}
		s.logger.Debug("bridge request failed",
			zap.String("module", req.Module),
			zap.String("method", req.Method),
			zap.Error(err),
		)
		return errorResponse(code, err.Error())
	}

	return Response{Type: "Result", Result: result}
}

func errorResponse(code int, message string) Response {
	return Response{Type: "Error", Code: code, Message: message}
}
