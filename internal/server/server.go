package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/peakecoin/peakpoker/internal/game"
	"github.com/peakecoin/peakpoker/internal/session"
)

// SessionFactory builds a fresh session for each websocket client. The
// bus carries the session's round events; the connection subscribes to
// push them to the client.
type SessionFactory func(bus game.EventBus) *session.Session

// BalanceReader serves the platform-side deposit balance for an
// account. Implemented by ledger.BalanceStore; nil disables the
// balance API.
type BalanceReader interface {
	Balance(ctx context.Context, account string) (float64, error)
}

// Server is the websocket and HTTP front of the poker service. It is a
// thin presentation adapter: all game state lives in per-connection
// sessions.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	newSession  SessionFactory
	limits      BetLimits
	symbol      string
	balances    BalanceReader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
}

// New creates a server that hands each client its own session
func New(addr string, newSession SessionFactory, limits BetLimits, symbol string, balances BalanceReader, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Browser clients connect from arbitrary origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		newSession:  newSession,
		limits:      limits,
		symbol:      symbol,
		balances:    balances,
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Handler returns the HTTP handler serving /ws, /health and
// /api/balance. Callers must have run() going, which Start does.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/balance", s.handleBalance)
	return mux
}

// Start runs the server until Stop or a listen failure
func (s *Server) Start() error {
	go s.run()

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	s.logger.Info("starting server", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down and closes all connections
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	bus := game.NewEventBus()
	client := NewConnection(conn, s.newSession(bus), s.limits, s.logger)
	bus.Subscribe(client)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleBalance serves the platform deposit balance for an account:
// GET /api/balance?user=alice
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.balances == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "ledger not configured"})
		return
	}

	user := strings.ToLower(r.URL.Query().Get("user"))
	if user == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing user parameter"})
		return
	}

	balance, err := s.balances.Balance(r.Context(), user)
	if err != nil {
		s.logger.Error("balance lookup failed", "user", user, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "balance lookup failed"})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"user":    user,
		"symbol":  s.symbol,
		"balance": balance,
	})
}
