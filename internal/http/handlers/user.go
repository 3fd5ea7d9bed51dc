package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/coursenese-be/internal/apperr"
	"github.com/hongminglow/coursenese-be/internal/avatar"
	"github.com/hongminglow/coursenese-be/internal/http/respond"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/models/dto"
	"github.com/hongminglow/coursenese-be/internal/storage"
)

const avatarField = "IMG"

// UserHandler serves the signed-in user's profile.
type UserHandler struct {
	store   storage.ProfileStore
	avatars avatar.Store
	guards  Guards
	now     func() time.Time
}

// NewUserHandler builds the /user routes.
func NewUserHandler(store storage.ProfileStore, avatars avatar.Store, guards Guards) *UserHandler {
	return &UserHandler{store: store, avatars: avatars, guards: guards, now: time.Now}
}

// Register mounts /user. Every route requires a session.
func (h *UserHandler) Register(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		r.Use(h.guards.RequireAuth)
		r.Get("/profile", h.handleProfile)
		r.Put("/updateprofile", h.handleUpdateProfile)
		r.Post("/upload-avatar", h.handleUploadAvatar)
	})
}

func (h *UserHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := userID(r)
	profile, err := h.store.FindUserWithProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, r, apperr.NotFound("user not found"))
			return
		}
		respond.Error(w, r, apperr.Server("failed to fetch profile", err))
		return
	}
	respond.JSON(w, http.StatusOK, "ok", profile)
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	upd := models.ProfileUpdate{
		Name:        trimmed(req.Name),
		PhoneNumber: trimmed(req.PhoneNumber),
		Address:     trimmed(req.Address),
		City:        trimmed(req.City),
		Country:     trimmed(req.Country),
		ZipCode:     trimmed(req.ZipCode),
		AvatarURL:   trimmed(req.AvatarURL),
		Bio:         trimmed(req.Bio),
	}
	if upd.Empty() {
		respond.Error(w, r, apperr.Validation("no data changed"))
		return
	}

	id, _ := userID(r)
	if err := h.store.UpdateProfile(r.Context(), id, upd, h.now()); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicatePhone):
			respond.Error(w, r, apperr.Conflict("phone number is already registered"))
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, r, apperr.NotFound("user not found"))
		default:
			respond.Error(w, r, apperr.Server("failed to update profile", err))
		}
		return
	}
	h.writeProfile(w, r, id)
}

func (h *UserHandler) writeProfile(w http.ResponseWriter, r *http.Request, id int64) {
	profile, err := h.store.FindUserWithProfile(r.Context(), id)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to fetch profile", err))
		return
	}
	respond.JSON(w, http.StatusOK, "Profile updated successfully", profile)
}

func (h *UserHandler) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, avatar.MaxSize+(64<<10))
	if err := r.ParseMultipartForm(avatar.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, apperr.Validation("file must be at most 5 MiB"))
			return
		}
		respond.Error(w, r, apperr.Validation("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile(avatarField)
	if err != nil {
		respond.Error(w, r, apperr.Validation("no file uploaded, use the form-data field 'IMG'"))
		return
	}
	defer file.Close()

	if header.Size > avatar.MaxSize {
		respond.Error(w, r, apperr.Validation("file must be at most 5 MiB"))
		return
	}
	ext, err := avatar.Extension(header.Filename)
	if err != nil {
		respond.Error(w, r, apperr.Validation(err.Error()))
		return
	}

	id, _ := userID(r)
	url, err := h.avatars.Save(r.Context(), id, ext, file, header.Size)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to store avatar", err))
		return
	}
	prev, err := h.store.SetAvatarURL(r.Context(), id, url, h.now())
	if err != nil {
		_ = h.avatars.Delete(r.Context(), url)
		respond.Error(w, r, apperr.Server("failed to save avatar", err))
		return
	}
	if prev != nil && *prev != url {
		_ = h.avatars.Delete(r.Context(), *prev)
	}

	respond.JSON(w, http.StatusOK, "Avatar updated successfully", map[string]string{
		"avatar_url":      url,
		"avatar_full_url": absoluteURL(r, url),
	})
}

func absoluteURL(r *http.Request, u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + u
}

// trimmed treats absent and blank values alike as unchanged.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
