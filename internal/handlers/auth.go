package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/fleetpro/fleet-maintenance/internal/auth"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest is the login payload: the single shared access key.
type LoginRequest struct {
	AccessKey string `json:"access_key"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login checks the shared access key and mints a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var loginReq LoginRequest
	if err := json.Unmarshal(body, &loginReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if loginReq.AccessKey == "" {
		http.Error(w, "Access key is required", http.StatusBadRequest)
		return
	}

	if err := h.authService.CheckAccessKey(loginReq.AccessKey); err != nil {
		http.Error(w, "Invalid access key", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken()
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LoginResponse{Token: token})
}
