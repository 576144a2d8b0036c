package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/scaffold-shop/internal/api/middleware"
	"github.com/example/scaffold-shop/internal/auth"
)

// AuthHandlers bridges the HTTP auth endpoints to the identity provider.
// Credentials go to the provider; on success the service mints its own
// session tokens and sets them as cookies.
type AuthHandlers struct {
	provider   auth.IdentityProvider
	jwtService *auth.JWTService
	adminGroup string
	logger     *zap.Logger
}

func NewAuthHandlers(provider auth.IdentityProvider, jwtService *auth.JWTService, adminGroup string, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		provider:   provider,
		jwtService: jwtService,
		adminGroup: adminGroup,
		logger:     logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Name == "" {
		respondJSONError(w, "email and name are required", http.StatusBadRequest)
		return
	}

	if err := h.provider.SignUp(r.Context(), req.Email, req.Password, req.Name); err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			respondJSONError(w, "email already registered", http.StatusConflict)
		case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordPolicy):
			respondJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("register", zap.Error(err))
			respondJSONError(w, "registration failed", http.StatusBadGateway)
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "confirmation code sent",
	})
}

func (h *AuthHandlers) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.provider.ConfirmSignUp(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, auth.ErrInvalidCode) {
			respondJSONError(w, "invalid confirmation code", http.StatusBadRequest)
			return
		}
		h.logger.Error("confirm sign up", zap.Error(err))
		respondJSONError(w, "confirmation failed", http.StatusBadGateway)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "account confirmed",
	})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	identity, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondJSONError(w, "invalid email or password", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrUserNotConfirmed):
			respondJSONError(w, "account is not confirmed", http.StatusForbidden)
		default:
			h.logger.Error("login", zap.Error(err))
			respondJSONError(w, "login failed", http.StatusBadGateway)
		}
		return
	}

	role := identity.Role(h.adminGroup)
	h.setAuthCookies(w, r, identity.UserID, identity.Email, role, identity.AccessToken)

	respondJSON(w, http.StatusOK, UserResponse{
		ID:    identity.UserID,
		Email: identity.Email,
		Name:  identity.Name,
		Role:  role,
	})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("provider_token"); err == nil && cookie.Value != "" {
		// Best-effort provider sign-out; local cookies are cleared regardless.
		if err := h.provider.SignOut(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("provider sign out", zap.Error(err))
		}
	}

	h.clearAuthCookies(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "no refresh token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	// The refresh token carries only the subject; email and role are
	// recovered from the expired access token after checking its signature.
	accessCookie, err := r.Cookie("access_token")
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "session expired", http.StatusUnauthorized)
		return
	}
	claims, err := h.jwtService.ClaimsFromExpiredToken(accessCookie.Value)
	if err != nil || claims.UserID != userID {
		h.clearAuthCookies(w)
		respondJSONError(w, "session expired", http.StatusUnauthorized)
		return
	}

	var providerToken string
	if cookie, err := r.Cookie("provider_token"); err == nil {
		providerToken = cookie.Value
	}
	h.setAuthCookies(w, r, claims.UserID, claims.Email, claims.Role, providerToken)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "token refreshed",
	})
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondJSONError(w, "email is required", http.StatusBadRequest)
		return
	}

	if err := h.provider.ForgotPassword(r.Context(), req.Email); err != nil {
		h.logger.Error("forgot password", zap.Error(err))
		respondJSONError(w, "request failed", http.StatusBadGateway)
		return
	}

	// Same response whether or not the account exists.
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "if the account exists, a reset code has been sent",
	})
}

func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.provider.ConfirmForgotPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCode):
			respondJSONError(w, "invalid reset code", http.StatusBadRequest)
		case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordPolicy):
			respondJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("reset password", zap.Error(err))
			respondJSONError(w, "reset failed", http.StatusBadGateway)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password reset",
	})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	})
}

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, userID, email, role, providerToken string) {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(userID, email, role)
	if err != nil {
		h.logger.Error("generate access token", zap.Error(err))
		return
	}
	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(userID)
	if err != nil {
		h.logger.Error("generate refresh token", zap.Error(err))
		return
	}

	secure := r.TLS != nil

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})

	if providerToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     "provider_token",
			Value:    providerToken,
			Path:     "/auth",
			Expires:  refreshExpiry,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "provider_token",
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
