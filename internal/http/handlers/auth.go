package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hongminglow/tweeter-be/internal/auth"
	"github.com/hongminglow/tweeter-be/internal/http/respond"
	"github.com/hongminglow/tweeter-be/internal/middleware"
	"github.com/hongminglow/tweeter-be/internal/models/dto"
)

// AuthService is the subset of auth.Service the handlers call.
type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (auth.Session, error)
	Login(ctx context.Context, in auth.LoginInput) (auth.Session, error)
	Me(ctx context.Context, token string) (auth.Session, error)
}

// AuthHandler owns the signup, login and me endpoints.
type AuthHandler struct {
	svc AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.handleSignup)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("GET /auth/me", h.handleMe)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	session, err := h.svc.Signup(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Err(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, dto.TokenResponse{Token: session.Token, Username: session.Username})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	session, err := h.svc.Login(r.Context(), auth.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		respond.Err(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.TokenResponse{Token: session.Token, Username: session.Username})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, auth.MsgAuthError)
		return
	}
	session, err := h.svc.Me(r.Context(), token)
	if err != nil {
		respond.Err(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.TokenResponse{Token: session.Token, Username: session.Username})
}
