package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/RowanDark/playfair/internal/cipher"
	"github.com/RowanDark/playfair/internal/logging"
	"github.com/RowanDark/playfair/internal/playfair"
)

// Config configures the REST API server.
type Config struct {
	Addr string
	// StaticToken guards the token issuing endpoint. Empty disables it.
	StaticToken string
	// JWTSecret enables bearer authentication on /api/v1 routes. Empty
	// serves them unauthenticated.
	JWTSecret       []byte
	JWTIssuer       string
	DefaultTokenTTL time.Duration
	// Defaults are merged under the parameters of every executed operation.
	Defaults map[string]any
	Ciphers  *playfair.Cache
	Recipes  *cipher.RecipeManager
	Registry *cipher.Registry
	Audit    *logging.AuditLogger
	Logger   *slog.Logger
}

// Server exposes the cipher operations, recipes, and key squares over HTTP.
type Server struct {
	cfg           Config
	httpServer    *http.Server
	authenticator *Authenticator
	ciphers       *playfair.Cache
	recipes       *cipher.RecipeManager
	registry      *cipher.Registry
	detector      cipher.Detector
	audit         *logging.AuditLogger
	logger        *slog.Logger
}

// NewServer constructs a REST API server using the provided configuration.
func NewServer(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("api address must be provided")
	}
	var auth *Authenticator
	if len(cfg.JWTSecret) > 0 {
		a, err := NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.DefaultTokenTTL)
		if err != nil {
			return nil, err
		}
		auth = a
	} else if strings.TrimSpace(cfg.StaticToken) != "" {
		return nil, errors.New("static token requires a jwt secret")
	}
	s := &Server{
		cfg:           cfg,
		authenticator: auth,
		ciphers:       cfg.Ciphers,
		recipes:       cfg.Recipes,
		registry:      cfg.Registry,
		detector:      cipher.NewPlayfairDetector(),
		audit:         cfg.Audit,
		logger:        cfg.Logger,
	}
	if s.ciphers == nil {
		s.ciphers = playfair.NewCache(0)
	}
	if s.recipes == nil {
		s.recipes = cipher.NewRecipeManager("")
	}
	if s.registry == nil {
		s.registry = cipher.Default()
	}
	if s.audit == nil {
		s.audit = logging.Discard()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Handler returns the routed API. Cleartext HTTP/2 is accepted alongside
// HTTP/1.1.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if s.authenticator != nil && strings.TrimSpace(s.cfg.StaticToken) != "" {
		router.HandleFunc("/api/v1/tokens", s.handleTokenIssue).Methods(http.MethodPost)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = router.NotFoundHandler
	api.MethodNotAllowedHandler = router.MethodNotAllowedHandler
	api.Use(s.requireJWT)
	api.HandleFunc("/cipher/execute", s.handleCipherExecute).Methods(http.MethodPost)
	api.HandleFunc("/cipher/pipeline", s.handleCipherPipeline).Methods(http.MethodPost)
	api.HandleFunc("/cipher/detect", s.handleCipherDetect).Methods(http.MethodPost)
	api.HandleFunc("/cipher/grid", s.handleCipherGrid).Methods(http.MethodPost)
	api.HandleFunc("/cipher/operations", s.handleCipherListOperations).Methods(http.MethodGet)
	api.HandleFunc("/recipes", s.handleRecipeList).Methods(http.MethodGet)
	api.HandleFunc("/recipes", s.handleRecipeSave).Methods(http.MethodPost)
	api.HandleFunc("/recipes/{name}", s.handleRecipeLoad).Methods(http.MethodGet)
	api.HandleFunc("/recipes/{name}", s.handleRecipeDelete).Methods(http.MethodDelete)
	api.HandleFunc("/recipes/{name}/run", s.handleRecipeRun).Methods(http.MethodPost)

	return h2c.NewHandler(router, &http2.Server{})
}

// Run starts the HTTP server and blocks until the provided context is cancelled or a fatal error occurs.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.cfg.Addr, "auth", s.authenticator != nil)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleTokenIssue(w http.ResponseWriter, r *http.Request) {
	if token := strings.TrimSpace(r.Header.Get("X-Playfair-Token")); token != s.cfg.StaticToken {
		s.emit(logging.AuditEvent{EventType: logging.EventAuthDenied, Decision: logging.DecisionDeny, Reason: "bad static token"})
		s.writeError(w, http.StatusUnauthorized, "unauthorised")
		return
	}
	var req struct {
		Subject    string  `json:"subject"`
		TTLSeconds float64 `json:"ttl_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ttl := time.Duration(req.TTLSeconds * float64(time.Second))
	token, expires, err := s.authenticator.Mint(req.Subject, ttl)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
}

func (s *Server) requireJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authenticator == nil {
			next.ServeHTTP(w, r)
			return
		}
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			s.deny(w, r, "missing bearer token")
			return
		}
		if _, err := s.authenticator.Validate(authHeader[len("bearer "):]); err != nil {
			s.deny(w, r, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) deny(w http.ResponseWriter, r *http.Request, reason string) {
	s.emit(logging.AuditEvent{
		EventType: logging.EventAuthDenied,
		Decision:  logging.DecisionDeny,
		Reason:    reason,
		Metadata:  map[string]any{"path": r.URL.Path, "remote": r.RemoteAddr},
	})
	s.writeError(w, http.StatusUnauthorized, reason)
}

func (s *Server) emit(event logging.AuditEvent) {
	if err := s.audit.Emit(event); err != nil {
		s.logger.Warn("audit emit failed", "event", event.EventType, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("write response failed", "status", status, "error", err)
	}
}
