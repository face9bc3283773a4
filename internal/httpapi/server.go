// Package httpapi is the JSON-over-HTTP boundary spec.md §6 calls "the
// sole boundary for traders and UIs": the exact GET/POST route table,
// plus an additive /ws/trades tape stream and JWT bearer auth on the
// three order-submission routes (SPEC_FULL.md §4.5). Routed with
// go-chi/chi/v5, following the Server/NewServer/Start/Stop graceful-
// shutdown shape of the example pack's market-making bot
// (0xtitan6-polymarket-mm/internal/api/server.go), adapted from its
// plain net/http.ServeMux to chi's mux.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"predictperp/internal/engine"
	"predictperp/internal/tradelog"
)

// Config tunes the HTTP server's bind address and JWT bearer-auth
// parameters.
type Config struct {
	Addr      string
	JWTSecret string
	JWTIssuer string
}

// Server owns the HTTP listener and the trade-tape websocket hub.
type Server struct {
	cfg     Config
	engine  *engine.Engine
	hub     *Hub
	handler http.Handler
	server  *http.Server
	cancel  context.CancelFunc
}

// New builds a Server wired to engine. Call TradeSink to attach the
// server's broadcaster as a tradelog.Sink before Start, if a live tape
// stream is wanted.
func New(cfg Config, eng *engine.Engine) *Server {
	h := &handlers{engine: eng}
	hub := newHub()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/orderbook", h.getOrderbook)
	r.Get("/positions/{address}", h.getPositions)
	r.Get("/oracle_price", h.getOraclePrice)
	r.Get("/perp_price", h.getPerpPrice)
	r.Get("/trades", h.getTrades)
	r.Get("/ws/trades", h.serveTrades(hub))

	r.Group(func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(jwtAuth(cfg.JWTSecret, cfg.JWTIssuer))
		}
		r.Post("/tx/limit_order", h.postLimitOrder)
		r.Post("/tx/market_order", h.postMarketOrder)
		r.Post("/tx/remove_limit_order", h.postRemoveLimitOrder)
	})

	return &Server{
		cfg:     cfg,
		engine:  eng,
		hub:     hub,
		handler: r,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the server's routed http.Handler, for embedding in a
// httptest.Server or a larger mux without binding a real listener.
func (s *Server) Handler() http.Handler { return s.handler }

// TradeSink returns the server's websocket broadcaster as a
// tradelog.Sink, for wiring onto the trade log's single SetSink hook
// alongside (or instead of) a persistence mirror.
func (s *Server) TradeSink() tradelog.Sink { return s.hub }

// Start runs the hub loop and begins serving. It blocks until the
// listener stops; call it in its own goroutine.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.hub.Run(ctx)

	log.Info().Str("addr", s.cfg.Addr).Msg("httpapi: listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: listen: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down, per the teacher's 10-second
// shutdown budget.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
