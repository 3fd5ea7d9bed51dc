package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/coursenese-be/internal/apperr"
	"github.com/hongminglow/coursenese-be/internal/http/respond"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/models/dto"
	"github.com/hongminglow/coursenese-be/internal/storage"
)

// RatingHandler lets owners rate courses.
type RatingHandler struct {
	ratings storage.RatingStore
	courses storage.CourseStore
	guards  Guards
}

// NewRatingHandler builds the /ratings routes.
func NewRatingHandler(ratings storage.RatingStore, courses storage.CourseStore, guards Guards) *RatingHandler {
	return &RatingHandler{ratings: ratings, courses: courses, guards: guards}
}

func (h *RatingHandler) Register(r chi.Router) {
	r.Route("/ratings", func(r chi.Router) {
		r.With(h.guards.RequireAuth).Post("/", h.handleCreate)
		r.Get("/{courseID}", h.handleList)
	})
}

func (h *RatingHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.RatingRequest
	if !decode(w, r, &req) {
		return
	}
	uid, _ := userID(r)
	ctx := r.Context()

	course, err := h.courses.FindCourseByID(ctx, req.CourseID)
	if err != nil {
		respond.Error(w, r, storeError(err, "course"))
		return
	}
	if course.Status != models.CoursePublished {
		respond.Error(w, r, apperr.NotFound("course not found"))
		return
	}
	owned, err := h.courses.IsCourseOwned(ctx, uid, course.ID)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to check ownership", err))
		return
	}
	if !owned {
		respond.Error(w, r, apperr.Forbidden("you can only rate courses you own"))
		return
	}

	rating, created, err := h.ratings.UpsertRating(ctx, models.Rating{
		UserID:   uid,
		CourseID: course.ID,
		Stars:    req.Stars,
		Comment:  trimmed(req.Comment),
	})
	if err != nil {
		respond.Error(w, r, storeError(err, "rating"))
		return
	}
	if created {
		respond.JSON(w, http.StatusCreated, "Rating submitted", rating)
		return
	}
	respond.JSON(w, http.StatusOK, "Rating updated", rating)
}

func (h *RatingHandler) handleList(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	p, limit := page(r, 10, 50)
	ratings, err := h.ratings.ListApprovedRatings(r.Context(), courseID, limit, (p-1)*limit)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to list ratings", err))
		return
	}
	stats, err := h.ratings.RatingSummary(r.Context(), courseID)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to summarize ratings", err))
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]any{
		"ratings":       ratings,
		"total_ratings": stats.TotalRatings,
		"avg_stars":     stats.AvgStars,
	})
}
