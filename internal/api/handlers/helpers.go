package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dom/notely/internal/api/middleware"
	"github.com/dom/notely/internal/api/response"
	"github.com/dom/notely/internal/domain"
	"github.com/dom/notely/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	return nil
}

// identity is only missing when a route was mounted without the auth gate.
func identity(w http.ResponseWriter, r *http.Request) (token.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
	}
	return id, ok
}

// noteID parses the {id} path parameter. A malformed id cannot name any
// note, so it is answered the same way as a missing one.
func noteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, "Note not found")
		return uuid.Nil, false
	}
	return id, true
}

// writeError answers with the status mapped from err. Internal failures are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	status := response.StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Error(op+" failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		response.Error(w, status, "Server error")
		return
	}
	response.Error(w, status, errorMessage(err))
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidTransition):
		return "Not found"
	case errors.Is(err, domain.ErrDuplicate):
		return "Email or username already exists"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many failed login attempts, try again later"
	case errors.Is(err, domain.ErrUnavailable):
		return "Avatar uploads are not configured"
	default:
		return err.Error()
	}
}
