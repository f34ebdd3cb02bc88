package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/cb-discovery/internal/config"
	"github.com/jonathan/cb-discovery/internal/server/middleware"
	"github.com/jonathan/cb-discovery/internal/session"
	"github.com/jonathan/cb-discovery/internal/survey"
	"github.com/jonathan/cb-discovery/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	roles    *config.RoleHashes
	jwt      *JWTService
	sessions session.Store
	testMode bool
	now      func() time.Time
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(roles *config.RoleHashes, jwtService *JWTService, sessions session.Store, testMode bool, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		roles:    roles,
		jwt:      jwtService,
		sessions: sessions,
		testMode: testMode,
		now:      time.Now,
		logger:   logger,
	}
}

// Login checks the shared role password and issues a token. Survey roles also
// get a fresh wizard session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, validationError(err))
		return
	}

	if h.roles == nil || !h.roles.Verify(req.Role, req.Password) {
		h.logger.Info("login rejected", zap.String("role", string(req.Role)), zap.String("username", req.Username))
		writeError(w, h.logger, &ErrInvalidCredentials{})
		return
	}

	id := middleware.Identity{Username: req.Username, Role: req.Role}
	if req.Role.CanSurvey() {
		s := survey.NewSession(uuid.NewString(), req.Username, req.Role, h.testMode, h.now())
		if err := h.sessions.Save(r.Context(), s); err != nil {
			writeError(w, h.logger, err)
			return
		}
		id.SessionID = s.ID
	}

	token, err := h.jwt.GenerateToken(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("login", zap.String("role", string(req.Role)), zap.String("username", req.Username))
	jsonResponse(w, h.logger, http.StatusOK, types.LoginResponse{
		Token:     token,
		Username:  id.Username,
		Role:      id.Role,
		SessionID: id.SessionID,
	})
}

// Logout discards the wizard session bound to the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.GetIdentity(r)
	if err != nil {
		writeError(w, h.logger, &ErrForbidden{Message: "not signed in"})
		return
	}
	if id.SessionID != "" {
		if err := h.sessions.Delete(r.Context(), id.SessionID); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	jsonResponse(w, h.logger, http.StatusOK, map[string]string{"status": "logged out"})
}
