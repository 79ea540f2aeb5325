package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adityakmrtiwari/CliNote/internal/config"
	"github.com/adityakmrtiwari/CliNote/internal/models"
	"github.com/adityakmrtiwari/CliNote/internal/sessions"
	"github.com/adityakmrtiwari/CliNote/internal/tokens"
	"github.com/adityakmrtiwari/CliNote/internal/users"
	"github.com/adityakmrtiwari/CliNote/pkg/logger"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
	"github.com/adityakmrtiwari/CliNote/pkg/response"
)

// RegisterRequest creates a local account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	verifier    *tokens.Verifier
	revoked     sessions.Blacklist
}

// NewAuthHandler wires the auth routes. bl must be the Blacklist the
// AuthMiddleware checks, otherwise logout cannot revoke access tokens.
func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, bl sessions.Blacklist) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, verifier: tokens.NewVerifier(cfg.JWT.Secret), revoked: bl}
}

// Register routes under /auth. requireAuth guards the profile endpoint.
func (h *AuthHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/register", h.RegisterUser)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	a.GET("/profile", requireAuth, h.Profile)
}

// RegisterUser creates an account and signs it in.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Name, email and password are required", err)
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, "Name, email and password are required", err)
		return
	case errors.Is(err, users.ErrEmailTaken):
		response.Error(c, http.StatusBadRequest, "User already exists", nil)
		return
	case err != nil:
		logger.Errorf("register: %v", err)
		response.Error(c, http.StatusInternalServerError, "Registration failed", err)
		return
	}
	h.issue(c, http.StatusCreated, "User registered successfully", u)
}

// Login verifies credentials and returns an access and refresh token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		response.Error(c, http.StatusBadRequest, "Email and password are required", err)
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		response.Error(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err != nil {
		logger.Errorf("login: %v", err)
		response.Error(c, http.StatusInternalServerError, "Login failed", err)
		return
	}
	h.issue(c, http.StatusOK, "Login successful", u)
}

func (h *AuthHandler) issue(c *gin.Context, status int, msg string, u *models.User) {
	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.ID, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to create session", err)
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Errorf("failed to sign access token: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to create access token", err)
		return
	}
	response.Success(c, status, msg, AuthResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Token:        access,
		RefreshToken: rft,
		ExpiresIn:    int64(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

// Profile returns the authenticated user without the password hash.
func (h *AuthHandler) Profile(c *gin.Context) {
	u, err := h.usersSvc.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to retrieve profile", err)
		return
	}
	if u == nil {
		response.Error(c, http.StatusNotFound, "User not found", nil)
		return
	}
	response.Success(c, http.StatusOK, "Profile retrieved successfully", u)
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.Error(c, http.StatusBadRequest, "refreshToken is required", err)
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Refresh validation failed", err)
		return
	}
	if sess == nil {
		response.Error(c, http.StatusUnauthorized, "Invalid refresh token", nil)
		return
	}
	u, err := h.usersSvc.GetByID(c.Request.Context(), sess.UserID)
	if err != nil || u == nil {
		response.Error(c, http.StatusUnauthorized, "Invalid refresh token", err)
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to create access token", err)
		return
	}
	response.Success(c, http.StatusOK, "Token refreshed", gin.H{"token": access, "expiresIn": int64(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout invalidates the refresh token and blacklists the presented access token
// for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	if at, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && at != "" {
		if ttl, err := h.verifier.Remaining(at); err == nil && ttl > 0 {
			if err := h.revoked.Revoke(c.Request.Context(), at, ttl); err != nil {
				response.Error(c, http.StatusInternalServerError, "Failed to revoke access token", err)
				return
			}
		}
	}
	if req.RefreshToken != "" {
		if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to remove session", err)
			return
		}
	}
	response.Success(c, http.StatusOK, "Logged out", nil)
}
