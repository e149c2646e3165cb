package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/service/auth"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "auth.subject"

// AuthHandler exposes login and password management.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Login exchanges the shared password for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Password)
	if err != nil {
		h.logger.Warn("login rejected", zap.Error(err), zap.String("client_ip", c.ClientIP()))
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ChangePassword replaces the shared password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequireSession rejects requests without a valid bearer token. Browsers
// cannot set headers on EventSource connections, so the token may also be
// passed as the access_token query parameter.
func (h *AuthHandler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || token == c.GetHeader("Authorization") {
			token = c.Query("access_token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing session token"})
			return
		}

		claims, err := h.svc.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}
		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}
