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

// FeedHandler serves the per-category feed endpoints.
type FeedHandler struct {
	feeds  map[domain.Category]*store.FeedStore
	logger zerolog.Logger
}

// NewFeedHandler creates a FeedHandler over the given feeds.
func NewFeedHandler(feeds map[domain.Category]*store.FeedStore, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		feeds:  feeds,
		logger: logger.With().Str("handler", "feed").Logger(),
	}
}

func (h *FeedHandler) feed(w http.ResponseWriter, r *http.Request) *store.FeedStore {
	category := domain.Category(chi.URLParam(r, "category"))
	feed, ok := h.feeds[category]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "unknown feed category"})
		return nil
	}
	return feed
}

func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// HandleList returns the feed, newest first.
func (h *FeedHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w, r)
	if feed == nil {
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"posts": feed.ListFeed()})
}

type createPostRequest struct {
	Content string `json:"content"`
	Rating  *int   `json:"rating,omitempty"`
}

// HandleCreate creates a post authored by the authenticated user.
func (h *FeedHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w, r)
	if feed == nil {
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid request body"})
		return
	}

	author := userFromContext(r.Context())
	post, err := feed.CreatePost(r.Context(), store.CreatePostInput{
		AuthorID: author.ID,
		Content:  req.Content,
		Rating:   req.Rating,
	})
	if err != nil {
		failRequest(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"post": post})
}

// HandleLike toggles the authenticated user's like on a post.
func (h *FeedHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w, r)
	if feed == nil {
		return
	}

	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid post id"})
		return
	}

	user := userFromContext(r.Context())
	likes, liked, err := feed.LikePost(r.Context(), id, user.ID)
	if err != nil {
		failRequest(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"likes": likes, "liked": liked})
}

// HandleDelete removes a post when the authenticated user is its author
// or an admin.
func (h *FeedHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w, r)
	if feed == nil {
		return
	}

	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid post id"})
		return
	}

	user := userFromContext(r.Context())
	if err := feed.DeletePost(r.Context(), id, user.ID); err != nil {
		failRequest(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil)
}
