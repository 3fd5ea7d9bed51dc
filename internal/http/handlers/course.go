package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gosimple/slug"
	"github.com/hongminglow/coursenese-be/internal/apperr"
	"github.com/hongminglow/coursenese-be/internal/http/respond"
	"github.com/hongminglow/coursenese-be/internal/middleware"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/models/dto"
	"github.com/hongminglow/coursenese-be/internal/storage"
)

// CourseHandler serves the public catalog and admin course management.
type CourseHandler struct {
	courses storage.CourseStore
	ratings storage.RatingStore
	guards  Guards
	now     func() time.Time
}

// NewCourseHandler builds the public catalog and admin course routes.
func NewCourseHandler(courses storage.CourseStore, ratings storage.RatingStore, guards Guards) *CourseHandler {
	return &CourseHandler{courses: courses, ratings: ratings, guards: guards, now: time.Now}
}

func (h *CourseHandler) Register(r chi.Router) {
	r.Route("/courses", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.guards.OptionalAuth)
			r.Get("/", h.handleList)
			r.Get("/{courseID}", h.handleDetail)
			r.Get("/{courseID}/ratings", h.handleRatings)
			r.Get("/{courseID}/comments", h.handleComments)
			r.Post("/{courseID}/view", h.handleView)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.guards.RequireAuth, h.guards.RequireAdmin)
			r.Post("/", h.handleCreate)
			r.Patch("/{courseID}", h.handleUpdate)
			r.Delete("/{courseID}", h.handleDelete)
			r.Post("/{courseID}/sections", h.handleAddSection)
			r.Patch("/sections/{sectionID}", h.handleUpdateSection)
			r.Delete("/sections/{sectionID}", h.handleDeleteSection)
			r.Post("/lessons", h.handleAddLesson)
			r.Patch("/lessons/{lessonID}", h.handleUpdateLesson)
			r.Delete("/lessons/{lessonID}", h.handleDeleteLesson)
			r.Patch("/{courseID}/ratings/{ratingID}/approve", h.handleApproveRating)
		})
	})
}

var catalogSorts = map[string]bool{
	models.SortNewest:    true,
	models.SortPriceAsc:  true,
	models.SortPriceDesc: true,
	models.SortRating:    true,
}

func (h *CourseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, limit := page(r, 10, 100)
	f := models.CourseFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Level:  strings.TrimSpace(q.Get("level")),
		SortBy: q.Get("sort_by"),
		Page:   p,
		Limit:  limit,
	}
	if !catalogSorts[f.SortBy] {
		f.SortBy = models.SortNewest
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respond.Error(w, r, apperr.Validation("category_id must be a positive integer"))
			return
		}
		f.CategoryID = id
	}

	courses, total, err := h.courses.ListPublishedCourses(r.Context(), f)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to list courses", err))
		return
	}
	pg := models.NewPagination(p, limit, total)
	respond.JSON(w, http.StatusOK, "ok", map[string]any{
		"courses": courses,
		"pagination": map[string]any{
			"current_page":  pg.CurrentPage,
			"total_pages":   pg.TotalPages,
			"total_courses": pg.Total,
			"limit":         pg.Limit,
		},
	})
}

func (h *CourseHandler) handleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.courses.FindPublishedCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		respond.Error(w, r, storeError(err, "course"))
		return
	}
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		owned, err := h.courses.IsCourseOwned(r.Context(), claims.UserID, detail.ID)
		if err != nil {
			respond.Error(w, r, apperr.Server("failed to check ownership", err))
			return
		}
		detail.IsOwned = owned
	}
	respond.JSON(w, http.StatusOK, "ok", detail)
}

func (h *CourseHandler) handleRatings(w http.ResponseWriter, r *http.Request) {
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
		"ratings":    ratings,
		"stats":      stats,
		"pagination": models.NewPagination(p, limit, stats.TotalRatings),
	})
}

func (h *CourseHandler) handleComments(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	p, limit := page(r, 10, 50)
	comments, total, err := h.courses.ListCourseComments(r.Context(), courseID, limit, (p-1)*limit)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to list comments", err))
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]any{
		"comments":   comments,
		"pagination": models.NewPagination(p, limit, total),
	})
}

func (h *CourseHandler) handleView(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var viewer *int64
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		viewer = &claims.UserID
	}
	if err := h.courses.RecordCourseView(r.Context(), courseID, viewer, h.now()); err != nil {
		respond.Error(w, r, storeError(err, "course"))
		return
	}
	respond.JSON(w, http.StatusCreated, "View recorded", nil)
}

func (h *CourseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCourseRequest
	if !decode(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	s := slug.Make(req.Slug)
	if s == "" {
		s = slug.Make(title)
	}
	if title == "" || s == "" {
		respond.Error(w, r, apperr.Validation("title is required"))
		return
	}

	claims, _ := middleware.ClaimsFrom(r.Context())
	course, err := h.courses.CreateCourse(r.Context(), models.NewCourse{
		Title:         title,
		Slug:          s,
		PriceInt:      *req.PriceInt,
		Level:         req.Level,
		DurationMin:   req.DurationMin,
		ThumbnailURL:  req.ThumbnailURL,
		IntroVideoURL: req.IntroVideoURL,
		DescriptionMD: req.DescriptionMD,
		CategoryIDs:   req.CategoryIDs,
		CreatedBy:     claims.UserID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, r, apperr.Validation("unknown category"))
			return
		}
		respond.Error(w, r, storeError(err, "course"))
		return
	}
	respond.JSON(w, http.StatusCreated, "Course created", course)
}

func (h *CourseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "courseID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req dto.UpdateCourseRequest
	if !decode(w, r, &req) {
		return
	}
	upd := models.CourseUpdate{
		Title:         trimmed(req.Title),
		PriceInt:      req.PriceInt,
		Level:         req.Level,
		DurationMin:   req.DurationMin,
		ThumbnailURL:  req.ThumbnailURL,
		IntroVideoURL: req.IntroVideoURL,
		DescriptionMD: req.DescriptionMD,
		Status:        req.Status,
	}
	if req.Slug != nil {
		s := slug.Make(*req.Slug)
		if s == "" {
			respond.Error(w, r, apperr.Validation("slug is invalid"))
			return
		}
		upd.Slug = &s
	}
	if upd.Empty() {
		respond.Error(w, r, apperr.Validation("at least one field must be provided"))
		return
	}

	course, err := h.courses.UpdateCourse(r.Context(), id, upd, h.now())
	if err != nil {
		respond.Error(w, r, storeError(err, "course"))
		return
	}
	respond.JSON(w, http.StatusOK, "Course updated", course)
}

func (h *CourseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "courseID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.courses.DeleteCourse(r.Context(), id); err != nil {
		respond.Error(w, r, storeError(err, "course"))
		return
	}
	respond.JSON(w, http.StatusOK, "Course deleted", nil)
}

func (h *CourseHandler) handleAddSection(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req dto.SectionRequest
	if !decode(w, r, &req) {
		return
	}
	section, err := h.courses.AddSection(r.Context(), courseID, strings.TrimSpace(req.Title), req.Sort)
	if err != nil {
		respond.Error(w, r, storeError(err, "course"))
		return
	}
	respond.JSON(w, http.StatusCreated, "Section created", section)
}

func (h *CourseHandler) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "sectionID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req dto.UpdateSectionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title == nil && req.Sort == nil {
		respond.Error(w, r, apperr.Validation("at least one field must be provided"))
		return
	}
	section, err := h.courses.UpdateSection(r.Context(), id, models.SectionUpdate{Title: trimmed(req.Title), Sort: req.Sort})
	if err != nil {
		respond.Error(w, r, storeError(err, "section"))
		return
	}
	respond.JSON(w, http.StatusOK, "Section updated", section)
}

func (h *CourseHandler) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "sectionID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.courses.DeleteSection(r.Context(), id); err != nil {
		respond.Error(w, r, storeError(err, "section"))
		return
	}
	respond.JSON(w, http.StatusOK, "Section deleted", nil)
}

func (h *CourseHandler) handleAddLesson(w http.ResponseWriter, r *http.Request) {
	var req dto.LessonRequest
	if !decode(w, r, &req) {
		return
	}
	lesson, err := h.courses.AddLesson(r.Context(), models.Lesson{
		SectionID:   req.SectionID,
		Title:       strings.TrimSpace(req.Title),
		VideoURL:    req.VideoURL,
		DurationMin: req.DurationMin,
		Sort:        req.Sort,
		IsPreview:   req.IsPreview,
	})
	if err != nil {
		respond.Error(w, r, storeError(err, "section"))
		return
	}
	respond.JSON(w, http.StatusCreated, "Lesson created", lesson)
}

func (h *CourseHandler) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "lessonID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req dto.UpdateLessonRequest
	if !decode(w, r, &req) {
		return
	}
	upd := models.LessonUpdate{
		Title:       trimmed(req.Title),
		VideoURL:    req.VideoURL,
		DurationMin: req.DurationMin,
		Sort:        req.Sort,
		IsPreview:   req.IsPreview,
	}
	if upd.Title == nil && upd.VideoURL == nil && upd.DurationMin == nil && upd.Sort == nil && upd.IsPreview == nil {
		respond.Error(w, r, apperr.Validation("at least one field must be provided"))
		return
	}
	lesson, err := h.courses.UpdateLesson(r.Context(), id, upd)
	if err != nil {
		respond.Error(w, r, storeError(err, "lesson"))
		return
	}
	respond.JSON(w, http.StatusOK, "Lesson updated", lesson)
}

func (h *CourseHandler) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "lessonID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.courses.DeleteLesson(r.Context(), id); err != nil {
		respond.Error(w, r, storeError(err, "lesson"))
		return
	}
	respond.JSON(w, http.StatusOK, "Lesson deleted", nil)
}

func (h *CourseHandler) handleApproveRating(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	ratingID, err := pathID(r, "ratingID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req dto.ApproveRatingRequest
	if !decode(w, r, &req) {
		return
	}
	rating, err := h.ratings.SetRatingApproval(r.Context(), courseID, ratingID, *req.Approved)
	if err != nil {
		respond.Error(w, r, storeError(err, "rating"))
		return
	}
	respond.JSON(w, http.StatusOK, "Rating updated", rating)
}
