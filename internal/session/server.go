package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/psychopy/liaison/internal/auth"
	"github.com/psychopy/liaison/internal/config"
	"github.com/psychopy/liaison/internal/observability"
	"github.com/psychopy/liaison/internal/registry"
)

// ServiceConfig wires a Service. Zero-value fields fall back to the
// process-wide registry and stdout as the control channel.
type ServiceConfig struct {
	Config   config.Config
	Registry *registry.Registry
	Control  io.Writer
}

// Service runs the session endpoint and the operator surface as one
// process lifecycle: bind, emit the start marker, serve sessions, emit the
// stop marker, release the endpoint.
type Service struct {
	cfg       config.Config
	reg       *registry.Registry
	control   io.Writer
	router    *gin.Engine
	history   *History
	upgrader  websocket.Upgrader
	validator auth.Validator
	startedAt time.Time

	mu       sync.Mutex
	sessions map[*Session]struct{}
	addr     string
	ready    chan struct{}
}

// NewService builds a Service from config.
func NewService(sc ServiceConfig) *Service {
	observability.RegisterMetrics()
	reg := sc.Registry
	if reg == nil {
		reg = registry.Default()
	}
	control := sc.Control
	if control == nil {
		control = os.Stdout
	}

	s := &Service{
		cfg:       sc.Config,
		reg:       reg,
		control:   control,
		history:   NewHistory(sc.Config.MessageHistory),
		startedAt: time.Now(),
		sessions:  make(map[*Session]struct{}),
		ready:     make(chan struct{}),
	}
	if token := sc.Config.AuthToken; token != "" {
		s.validator = auth.StaticToken{Token: token}
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: originChecker(sc.Config.CORSOrigins),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	if len(sc.Config.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: sc.Config.CORSOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}
	s.router = r
	s.registerRoutes()
	return s
}

func (s *Service) registerRoutes() {
	s.router.GET("/", s.handleSession)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"uptime":   time.Since(s.startedAt).String(),
			"sessions": s.sessionCount(),
		})
	})
	s.router.GET("/constants", func(c *gin.Context) {
		c.JSON(http.StatusOK, Constants())
	})
	s.router.GET("/messages", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"messages": s.history.Snapshot()})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run binds the configured address and serves until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the session endpoint on an existing listener. The start
// marker, suffixed with the bound address, goes to the control channel
// before any traffic is accepted; the stop marker is the last thing
// emitted.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	addr := ln.Addr().String()
	s.mu.Lock()
	s.addr = addr
	s.mu.Unlock()

	fmt.Fprintf(s.control, "%s@%s\n", StartMarker, addr)
	close(s.ready)
	log.Info().Str("addr", addr).Msg("liaison listening")

	srv := &http.Server{Handler: s.router}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeAllSessions()
		_ = srv.Shutdown(shutdownCtx)
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.closeAllSessions()
	}

	fmt.Fprintf(s.control, "%s\n", StopMarker)
	log.Info().Str("addr", addr).Msg("liaison stopped")
	return err
}

// Addr returns the bound address once Serve has emitted the start marker.
func (s *Service) Addr() string {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Service) listen() (net.Listener, error) {
	if !s.cfg.TLS.Enabled {
		return net.Listen("tcp", s.cfg.Addr())
	}
	cert, err := tls.LoadX509KeyPair(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load tls keypair: %w", err)
	}
	return tls.Listen("tcp", s.cfg.Addr(), &tls.Config{Certificates: []tls.Certificate{cert}})
}

// handleSession upgrades one connection and runs its session to completion.
// One Companion per connection; Companions are never shared.
func (s *Service) handleSession(c *gin.Context) {
	if s.validator != nil {
		if err := s.validator.Validate(auth.TokenFromRequest(c.Request)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", c.Request.RemoteAddr).Msg("session upgrade failed")
		return
	}

	logger := log.With().Str("remote", conn.RemoteAddr().String()).Logger()
	sess := newSession(conn, s.reg, s.history, logger, s.cfg.IdleTimeout)
	s.track(sess)
	observability.RecordSessionOpen()
	logger.Info().Msg("session opened")

	sess.Run()

	s.untrack(sess)
	observability.RecordSessionClose()
	logger.Info().Msg("session closed")
}

func (s *Service) track(sess *Session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
}

func (s *Service) untrack(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

func (s *Service) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) closeAllSessions() {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.Close()
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
