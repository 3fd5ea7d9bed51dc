package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/coursenese-be/internal/apperr"
	"github.com/hongminglow/coursenese-be/internal/http/respond"
	"github.com/hongminglow/coursenese-be/internal/middleware"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/storage"
	"github.com/hongminglow/coursenese-be/internal/validation"
)

const maxBodyBytes = 1 << 20

// Guards are the route middlewares handlers attach to protected routes.
type Guards struct {
	RequireAuth  func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
}

// NewGuards builds the standard guards on top of an Authenticator.
func NewGuards(a middleware.Authenticator) Guards {
	return Guards{
		RequireAuth:  middleware.Authenticate(a),
		OptionalAuth: middleware.OptionalAuth(a),
		RequireAdmin: middleware.RequireRole(models.RoleAdmin),
	}
}

// decode reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller may continue.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respond.Fail(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		respond.Error(w, r, err)
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name + " must be a positive integer")
	}
	return id, nil
}

// page reads page and limit query params, clamping limit to maxLimit.
func page(r *http.Request, defLimit, maxLimit int) (int, int) {
	q := r.URL.Query()
	p, err := strconv.Atoi(q.Get("page"))
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(q.Get("limit"))
	if err != nil || l < 1 {
		l = defLimit
	}
	if l > maxLimit {
		l = maxLimit
	}
	return p, l
}

// userID returns the authenticated caller. Routes using it sit behind middleware.Authenticate.
func userID(r *http.Request) (int64, bool) {
	c, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return 0, false
	}
	return c.UserID, true
}

// storeError classifies a storage failure on the named resource.
func storeError(err error, resource string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound(resource + " not found")
	case errors.Is(err, storage.ErrDuplicateSlug):
		return apperr.Conflict("slug is already taken")
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperr.Conflict(resource + " already exists")
	}
	return apperr.Server("failed to process "+resource, err)
}
