package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/moddi-tech/community/internal/domain"
	"github.com/moddi-tech/community/internal/store"
)

// UserHandler serves the member directory endpoints.
type UserHandler struct {
	accounts *store.AccountStore
	feeds    map[domain.Category]*store.FeedStore
	logger   zerolog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(accounts *store.AccountStore, feeds map[domain.Category]*store.FeedStore, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		feeds:    feeds,
		logger:   logger.With().Str("handler", "user").Logger(),
	}
}

func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// HandleList returns community members. Without a query it lists every
// member except the caller; with ?q= it searches the whole roster.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	var users []*domain.User
	if term != "" {
		users = h.accounts.Search(term)
	} else {
		users = h.accounts.ListOthers()
	}

	writeSuccess(w, http.StatusOK, map[string]any{"users": viewUsers(users)})
}

// HandleGet returns one member.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid user id"})
		return
	}

	user, err := h.accounts.FindByID(r.Context(), id)
	if err != nil {
		failRequest(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"user": viewUser(user)})
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
	Avatar    *string `json:"avatar"`
	Bio       *string `json:"bio"`
}

// HandleUpdate patches a member's profile. Members may edit themselves;
// admins may edit anyone.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid user id"})
		return
	}

	actor := userFromContext(r.Context())
	if actor.ID != id && !actor.Role.IsAdmin() {
		writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": "not allowed to edit this profile"})
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid request body"})
		return
	}

	patch := domain.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
		Bio:       req.Bio,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	user, err := h.accounts.UpdateProfile(r.Context(), id, patch)
	if err != nil {
		failRequest(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"user": viewUser(user)})
}

// HandlePosts returns a member's posts across one category or all of
// them, with per-category counts.
func (h *UserHandler) HandlePosts(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid user id"})
		return
	}

	if _, err := h.accounts.FindByID(r.Context(), id); err != nil {
		failRequest(w, h.logger, err)
		return
	}

	category := domain.Category(r.URL.Query().Get("category"))
	if category != "" {
		feed, found := h.feeds[category]
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "unknown feed category"})
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{
			"posts": feed.ListByAuthor(id),
			"count": feed.CountByAuthor(id),
		})
		return
	}

	posts := make(map[string]any, len(h.feeds))
	counts := make(map[string]int, len(h.feeds))
	for cat, feed := range h.feeds {
		posts[string(cat)] = feed.ListByAuthor(id)
		counts[string(cat)] = feed.CountByAuthor(id)
	}
	writeSuccess(w, http.StatusOK, map[string]any{"posts": posts, "counts": counts})
}
