package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/moddi-tech/community/internal/domain"
	"github.com/moddi-tech/community/internal/store"
)

// RouterConfig contains the dependencies of the API router.
type RouterConfig struct {
	Accounts *store.AccountStore
	Feeds    map[domain.Category]*store.FeedStore
	Logger   zerolog.Logger
}

// NewRouter assembles the community API.
func NewRouter(cfg RouterConfig) http.Handler {
	auth := NewAuthHandler(cfg.Accounts, cfg.Logger)
	feeds := NewFeedHandler(cfg.Feeds, cfg.Logger)
	users := NewUserHandler(cfg.Accounts, cfg.Feeds, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(cfg.Logger.With().Str("component", "http").Logger()))
	r.Use(sessionMiddleware(cfg.Accounts))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", auth.HandleRegister)
			r.Post("/login", auth.HandleLogin)
			r.Post("/logout", auth.HandleLogout)
			r.Get("/me", requireAuth(auth.HandleMe))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.HandleList)
			r.Get("/{id}", users.HandleGet)
			r.Patch("/{id}", requireAuth(users.HandleUpdate))
			r.Get("/{id}/posts", users.HandlePosts)
		})

		r.Route("/feed/{category}", func(r chi.Router) {
			r.Get("/", feeds.HandleList)
			r.Post("/", requireAuth(feeds.HandleCreate))
			r.Post("/{id}/like", requireAuth(feeds.HandleLike))
			r.Delete("/{id}", requireAuth(feeds.HandleDelete))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
