package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ad-tech1009/Teams-ToDo/internal/service"
	"github.com/Ad-tech1009/Teams-ToDo/pkg/middleware"
	"github.com/Ad-tech1009/Teams-ToDo/pkg/validator"
)

// RefreshTokenCookie is the name of the cookie carrying the refresh token.
// It is scoped to the auth subtree so it never travels with API requests.
const RefreshTokenCookie = "refresh_token"

const refreshCookiePath = "/api/v1/auth"

// CookieConfig controls the token cookies issued at login.
type CookieConfig struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.UserService
	cookies CookieConfig
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.UserService, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, logger: logger}
}

// --- Request DTOs ---

// SignupRequest is the JSON request body for user registration.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the JSON request body for token refresh, used by clients
// that cannot send the refresh cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// --- Handlers ---

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.setTokenCookies(w, tokens.AccessToken, tokens.RefreshToken)
	writeJSON(w, http.StatusCreated, response{Data: user})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.setTokenCookies(w, tokens.AccessToken, tokens.RefreshToken)
	writeJSON(w, http.StatusOK, response{Data: user})
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token comes from
// the refresh_token cookie, or from the body for non-browser clients.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := ""
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		refreshToken = c.Value
	}
	if refreshToken == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}

	accessToken, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	h.setCookie(w, middleware.AccessTokenCookie, accessToken, "/", h.cookies.AccessTTL)
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"access_token": accessToken}})
}

// Logout handles POST /api/v1/auth/logout. With stateless sessions there is
// nothing to revoke server-side; both cookies are cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, middleware.AccessTokenCookie, "", "/", -time.Second)
	h.setCookie(w, RefreshTokenCookie, "", refreshCookiePath, -time.Second)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	h.setCookie(w, middleware.AccessTokenCookie, accessToken, "/", h.cookies.AccessTTL)
	h.setCookie(w, RefreshTokenCookie, refreshToken, refreshCookiePath, h.cookies.RefreshTTL)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value, path string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   h.cookies.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
