package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jonathan/cb-discovery/internal/analysis"
	"github.com/jonathan/cb-discovery/internal/config"
	"github.com/jonathan/cb-discovery/internal/db"
	"github.com/jonathan/cb-discovery/internal/llm"
	"github.com/jonathan/cb-discovery/internal/metrics"
	"github.com/jonathan/cb-discovery/internal/rendering"
	"github.com/jonathan/cb-discovery/internal/server/middleware"
	"github.com/jonathan/cb-discovery/internal/server/ratelimit"
	"github.com/jonathan/cb-discovery/internal/session"
	"github.com/jonathan/cb-discovery/internal/survey"
	"github.com/jonathan/cb-discovery/internal/types"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = validator.New()

// SubmissionStore persists submitted surveys. *db.DB implements it.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub types.Submission) (uuid.UUID, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (*types.Submission, error)
	ListSubmissions(ctx context.Context, filter db.Filter) ([]types.Submission, error)
	SaveScores(ctx context.Context, id uuid.UUID, report types.MaturityReport) error
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds listener settings
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	TestMode       bool
	// RateLimit nil disables rate limiting.
	RateLimit *ratelimit.Config
}

// Deps are the collaborators the handlers use. Catalog, Sessions and JWT are required.
type Deps struct {
	Logger      *zap.Logger
	Catalog     *survey.Catalog
	Sessions    session.Store
	Submissions SubmissionStore
	Completer   llm.Completer
	Exporter    *rendering.Exporter
	NextSteps   rendering.NextSteps
	JWT         *config.JWTConfig
	Roles       *config.RoleHashes
	Checks      map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	logger      *zap.Logger
	catalog     *survey.Catalog
	sessions    session.Store
	submissions SubmissionStore
	completer   llm.Completer
	followups   *llm.FollowUpGenerator
	analyst     *analysis.Analyst
	exporter    *rendering.Exporter
	nextSteps   rendering.NextSteps
	jwtService  *JWTService
	authHandler *AuthHandler
	rateLimiter *ratelimit.Limiter
	origins     []string
	testMode    bool
	checks      map[string]HealthCheck
	now         func() time.Time
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("server requires a question catalog")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("server requires a session store")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("server requires a JWT configuration")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var completer llm.Completer = llm.Unavailable{}
	if deps.Completer != nil {
		completer = deps.Completer
	}
	completer = metrics.InstrumentCompleter(completer)

	exporter := deps.Exporter
	if exporter == nil {
		exporter = rendering.NewExporter(nil)
	}
	nextSteps := deps.NextSteps
	if nextSteps == nil {
		var err error
		if nextSteps, err = rendering.DefaultNextSteps(); err != nil {
			return nil, fmt.Errorf("failed to load next steps: %w", err)
		}
	}

	s := &Server{
		logger:      logger,
		catalog:     deps.Catalog,
		sessions:    deps.Sessions,
		submissions: deps.Submissions,
		completer:   completer,
		followups:   llm.NewFollowUpGenerator(completer, logger),
		analyst:     analysis.NewAnalyst(completer, logger),
		exporter:    exporter,
		nextSteps:   nextSteps,
		jwtService:  NewJWTService(deps.JWT),
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		origins:     cfg.AllowedOrigins,
		testMode:    cfg.TestMode,
		checks:      deps.Checks,
		now:         time.Now,
	}
	s.authHandler = NewAuthHandler(deps.Roles, s.jwtService, deps.Sessions, cfg.TestMode, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Authentication
	mux.HandleFunc("POST /login", s.authHandler.Login)
	mux.Handle("POST /logout", s.authed(s.authHandler.Logout))

	// Survey wizard
	mux.Handle("POST /sessions", s.surveyor(s.handleCreateSession))
	mux.Handle("GET /sessions/{id}", s.surveyor(s.handleGetSession))
	mux.Handle("POST /sessions/{id}/fixed/next", s.surveyor(s.handleFixedNext))
	mux.Handle("POST /sessions/{id}/fixed/back", s.surveyor(s.handleFixedBack))
	mux.Handle("POST /sessions/{id}/fixed/finish", s.surveyor(s.handleFixedFinish))
	mux.Handle("POST /sessions/{id}/fixed/{qid}", s.surveyor(s.handleFixedAnswer))
	mux.Handle("POST /sessions/{id}/deep-dive/answer", s.surveyor(s.handleDeepDiveAnswer))
	mux.Handle("POST /sessions/{id}/deep-dive/next", s.surveyor(s.handleDeepDiveNext))
	mux.Handle("POST /sessions/{id}/deep-dive/back", s.surveyor(s.handleDeepDiveBack))
	mux.Handle("POST /sessions/{id}/deep-dive/finish", s.surveyor(s.handleDeepDiveFinish))
	mux.Handle("POST /sessions/{id}/submit", s.surveyor(s.handleSubmit))
	mux.Handle("POST /sessions/{id}/scores", s.surveyor(s.handleSessionScores))
	mux.Handle("GET /sessions/{id}/report", s.surveyor(s.handleSessionReport))
	mux.Handle("GET /sessions/{id}/responses", s.surveyor(s.handleSessionResponses))

	// Questions and follow-ups
	mux.Handle("GET /questions", s.authed(s.handleListQuestions))
	mux.Handle("GET /questions/{id}/tip", s.authed(s.handleQuestionTip))
	mux.Handle("POST /followups", s.authed(s.handleFollowUps))

	// Admin
	mux.Handle("GET /admin/submissions", s.admin(s.handleListSubmissions))
	mux.Handle("GET /admin/submissions/{id}", s.admin(s.handleGetSubmission))
	mux.Handle("POST /admin/submissions/{id}/scores", s.admin(s.handleSubmissionScores))
	mux.Handle("GET /admin/submissions/{id}/analytics", s.admin(s.handleSubmissionAnalytics))
	mux.Handle("POST /admin/submissions/{id}/analysis", s.admin(s.handleSubmissionAnalysis))
	mux.Handle("POST /admin/submissions/{id}/spec", s.admin(s.handleSubmissionSpec))
	mux.Handle("GET /admin/submissions/{id}/report", s.admin(s.handleSubmissionReport))
	mux.Handle("GET /admin/submissions/{id}/responses", s.admin(s.handleSubmissionResponses))
	mux.Handle("GET /admin/insights", s.admin(s.handleInsights))

	s.handler = s.withMetrics(s.withRateLimit(s.withLogging(s.withCORS(mux))))
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout, // PDF export and analyses can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h)
}

func (s *Server) surveyor(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(
		middleware.RequireRole(types.RoleUser, types.RoleHead, types.RoleDataInfrastructure)(h))
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(
		middleware.RequireRole(types.RoleAdmin)(h))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// routeLabel returns the matched route pattern without its method.
func routeLabel(r *http.Request) string {
	pattern := r.Pattern
	if pattern == "" {
		return "unmatched"
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	return pattern
}

// withMetrics records request counts and latency per route
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// ServeMux sets r.Pattern on this same request once it matches.
		route := routeLabel(r)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowAll := slices.Contains(s.origins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract client identifier (IP address)
		clientID := extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, clientID, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		s.logger.Warn("health check failed", zap.Any("checks", failed))
		jsonResponse(w, s.logger, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"checks": failed,
		})
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	jsonResponse(w, logger, status, map[string]string{"error": message})
}

// writeError maps err to a status. Internal failures are logged and answered
// with a generic message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		errorResponse(w, logger, status, "internal server error")
		return
	}
	errorResponse(w, logger, status, err.Error())
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ErrValidation{Message: "invalid request body"}
	}
	return nil
}

// decodeAndValidate decodes a JSON body and runs its validate tags.
func decodeAndValidate(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError converts validator errors to ErrValidation.
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// Report the first failure only
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Message: "invalid request"}
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr; forwarded headers are not trusted.
func extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		retry := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = retry
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", clientID),
		zap.Int("limit", info.Limit),
		zap.Int("remaining", info.Remaining),
	)

	jsonResponse(w, s.logger, http.StatusTooManyRequests, response)
}
