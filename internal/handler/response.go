// Package handler provides the HTTP API for the community platform.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/moddi-tech/community/internal/domain"
)

// userView is the API representation of a user. The password hash is
// never exposed.
type userView struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar"`
	JoinDate  string `json:"joinDate"`
	Bio       string `json:"bio"`
	Verified  bool   `json:"verified"`
}

func viewUser(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		Avatar:    u.Avatar,
		JoinDate:  u.JoinDate,
		Bio:       u.Bio,
		Verified:  u.Verified,
	}
}

func viewUsers(users []*domain.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSuccess sends {"success": true, ...extra}.
func writeSuccess(w http.ResponseWriter, status int, extra map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

// failRequest logs errors outside the recoverable taxonomy and sends the
// failure response.
func failRequest(w http.ResponseWriter, logger zerolog.Logger, err error) {
	if !domain.IsExpected(err) {
		logger.Error().Err(err).Msg("request failed")
	}
	writeFailure(w, err)
}

// writeFailure maps a store error to an HTTP status and sends
// {"success": false, "message": ...}. Unexpected errors are reported
// without internal detail.
func writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrFieldsRequired),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrCredentialsRequired),
		errors.Is(err, domain.ErrContentRequired),
		errors.Is(err, domain.ErrContentTooShort),
		errors.Is(err, domain.ErrRatingRequired),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrAuthorRequired):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, domain.ErrNotAuthorized):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPostNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrUserAlreadyExists):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrStorage):
		status = http.StatusInternalServerError
		message = "storage unavailable"
	}

	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
