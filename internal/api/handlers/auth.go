package handlers

import (
	"net"
	"net/http"

	"github.com/dom/notely/internal/api/response"
	"github.com/dom/notely/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	// ID is either the username or the email address.
	ID       string `json:"id"`
	Password string `json:"password"`
}

// IdentityResponse mirrors the claims carried by the caller's token.
type IdentityResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, "register", err)
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, r, h.log, "register", err)
		return
	}

	h.log.Info("user registered", zap.String("user_id", result.User.ID.String()))
	response.JSON(w, http.StatusCreated, "User registered successfully", result.Token)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, "login", err)
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		ID:       req.ID,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		writeError(w, r, h.log, "login", err)
		return
	}

	response.JSON(w, http.StatusOK, "Login successful", result.Token)
}

// Logout only acknowledges. Tokens are stateless and the client discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, "", IdentityResponse{
		ID:        id.UserID.String(),
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Username:  id.Username,
		Email:     id.Email,
	})
}

// clientIP strips the port from RemoteAddr. Forwarding headers only count
// when the router trusts them and has rewritten RemoteAddr already.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
