package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hongminglow/tweeter-be/internal/auth"
	"github.com/hongminglow/tweeter-be/internal/http/respond"
	"github.com/hongminglow/tweeter-be/internal/middleware"
	"github.com/hongminglow/tweeter-be/internal/models"
	"github.com/hongminglow/tweeter-be/internal/models/dto"
)

// TweetService is the subset of tweets.Service the handlers call.
type TweetService interface {
	List(ctx context.Context, username string) ([]models.Tweet, error)
	Get(ctx context.Context, id string) (models.Tweet, error)
	Create(ctx context.Context, text, authorID string) (models.Tweet, error)
	Update(ctx context.Context, id, text, userID string) (models.Tweet, error)
	Remove(ctx context.Context, id, userID string) error
}

// TweetHandler owns the /tweets endpoints. Mutations require a bearer token.
type TweetHandler struct {
	svc         TweetService
	requireAuth func(http.Handler) http.Handler
}

func NewTweetHandler(svc TweetService, authn middleware.Authenticator) *TweetHandler {
	return &TweetHandler{svc: svc, requireAuth: middleware.RequireAuth(authn)}
}

// Register attaches tweet routes to the mux.
func (h *TweetHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /tweets", h.handleList)
	mux.HandleFunc("GET /tweets/{id}", h.handleGet)
	mux.Handle("POST /tweets", h.requireAuth(http.HandlerFunc(h.handleCreate)))
	mux.Handle("PUT /tweets/{id}", h.requireAuth(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /tweets/{id}", h.requireAuth(http.HandlerFunc(h.handleDelete)))
}

func (h *TweetHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		respond.Err(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *TweetHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	tweet, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Err(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, tweet)
}

func (h *TweetHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrAbort(w, r)
	if !ok {
		return
	}
	var req dto.TweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	tweet, err := h.svc.Create(r.Context(), req.Text, claims.UserID)
	if err != nil {
		respond.Err(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, tweet)
}

func (h *TweetHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrAbort(w, r)
	if !ok {
		return
	}
	var req dto.TweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	tweet, err := h.svc.Update(r.Context(), r.PathValue("id"), req.Text, claims.UserID)
	if err != nil {
		respond.Err(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, tweet)
}

func (h *TweetHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrAbort(w, r)
	if !ok {
		return
	}
	if err := h.svc.Remove(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		respond.Err(w, r, err)
		return
	}
	respond.NoContent(w)
}

func claimsOrAbort(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, auth.MsgAuthError)
	}
	return claims, ok
}
