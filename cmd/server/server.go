package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nickyhof/LineDB/db"
)

// maxLineSize bounds a single request line.
const maxLineSize = 1 << 20

// Server exposes a database over TCP, one query per line and one JSON
// response per line. Queries from all connections are serialized by the
// database itself.
type Server struct {
	listener  net.Listener
	database  *db.Database
	auth      *AuthConfig
	logger    *zap.Logger
	tlsConfig *tls.Config

	mu      sync.Mutex
	conns   map[string]net.Conn
	stopped bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewServer creates a server without authentication.
func NewServer(database *db.Database, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		database: database,
		logger:   logger,
		conns:    make(map[string]net.Conn),
		done:     make(chan struct{}),
	}
}

// NewServerWithAuth creates a server that requires AUTH when auth.Enabled.
func NewServerWithAuth(database *db.Database, auth *AuthConfig, logger *zap.Logger) *Server {
	s := NewServer(database, logger)
	s.auth = auth
	return s
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	s.logger.Info("server listening", zap.String("addr", listener.Addr().String()))

	go s.acceptLoop()
	return nil
}

// StartTLS is Start over TLS with the given certificate and key files.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	s.tlsConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	listener, err := tls.Listen("tcp", addr, s.tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.listener = listener

	s.logger.Info("server listening", zap.String("addr", listener.Addr().String()), zap.Bool("tls", true))

	go s.acceptLoop()
	return nil
}

// TLSEnabled reports whether the server was started with StartTLS.
func (s *Server) TLSEnabled() bool {
	return s.tlsConfig != nil
}

// Stop closes the listener and every open connection, then waits for the
// connection handlers to return.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.done)
	for _, conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}

	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) authRequired() bool {
	return s.auth != nil && s.auth.Enabled
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Warn("accept error", zap.Error(err))
				continue
			}
		}

		state := &ConnectionState{id: uuid.NewString()}
		if !s.track(conn, state) {
			return
		}
		go s.handleConnection(conn, state)
	}
}

// track registers a connection with the handler group. After Stop it closes
// conn instead and returns false.
func (s *Server) track(conn net.Conn, state *ConnectionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		conn.Close()
		return false
	}
	s.conns[state.id] = conn
	s.wg.Add(1)
	return true
}

func (s *Server) handleConnection(conn net.Conn, state *ConnectionState) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, state.id)
		s.mu.Unlock()
		conn.Close()
	}()

	logger := s.logger.With(zap.String("conn", state.id), zap.String("remote", conn.RemoteAddr().String()))
	logger.Info("client connected")

	reader := bufio.NewReaderSize(conn, 64*1024)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		line, err := readLine(reader)
		if err != nil {
			if err != io.EOF {
				select {
				case <-s.done:
				default:
					logger.Warn("read error", zap.Error(err))
				}
			}
			return
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}

		lower := strings.ToLower(query)
		if lower == "quit" || lower == "exit" {
			logger.Info("client disconnected")
			return
		}

		response := s.handleLine(query, state, logger)

		data, err := EncodeResponse(response)
		if err != nil {
			logger.Error("failed to encode response", zap.Error(err))
			continue
		}
		if _, err := conn.Write(data); err != nil {
			logger.Warn("write error", zap.Error(err))
			return
		}
	}
}

// readLine reads one newline terminated line, failing on lines longer than
// maxLineSize. A final line without newline is returned as is.
func readLine(reader *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, err := reader.ReadSlice('\n')
		sb.Write(chunk)
		if sb.Len() > maxLineSize {
			return "", fmt.Errorf("request line exceeds %d bytes", maxLineSize)
		}
		switch err {
		case nil:
			return sb.String(), nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", io.EOF
		default:
			return "", err
		}
	}
}

func (s *Server) handleLine(query string, state *ConnectionState, logger *zap.Logger) Response {
	if isAuthCommand(query) {
		response := s.handleAuth(query, state)
		if response.Success {
			logger.Info("client authenticated", zap.String("identity", response.Identity))
		} else {
			logger.Info("authentication failed", zap.String("error", response.Error))
		}
		return response
	}

	if s.authRequired() && !state.IsAuthenticated() {
		return failResponse("query", "authentication required: send AUTH JWT <token> or AUTH PASSWORD <user> <password>")
	}

	if strings.EqualFold(query, "SAVE") {
		return s.save(state, logger)
	}

	return responseFromResult(s.database.Query(query))
}

func (s *Server) save(state *ConnectionState, logger *zap.Logger) Response {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.database.Save(ctx); err != nil {
		logger.Warn("save failed", zap.Error(err))
		return failResponse("save", err.Error())
	}

	by := "anonymous"
	if identity := state.Identity(); identity != nil {
		by = identity.String()
	}
	logger.Info("database saved", zap.String("by", by), zap.String("path", s.database.FilePath()))

	return Response{
		Success: true,
		Status:  db.OK.String(),
		Type:    "save",
		Report:  "Database saved to " + s.database.FilePath(),
		TimeMs:  float64(time.Since(start).Microseconds()) / 1000,
	}
}
