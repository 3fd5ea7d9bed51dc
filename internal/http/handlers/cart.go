package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/coursenese-be/internal/apperr"
	"github.com/hongminglow/coursenese-be/internal/http/respond"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/models/dto"
	"github.com/hongminglow/coursenese-be/internal/storage"
)

// CartHandler manages the caller's active cart.
type CartHandler struct {
	carts   storage.CartStore
	courses storage.CourseStore
	guards  Guards
}

// NewCartHandler builds the /cart routes.
func NewCartHandler(carts storage.CartStore, courses storage.CourseStore, guards Guards) *CartHandler {
	return &CartHandler{carts: carts, courses: courses, guards: guards}
}

func (h *CartHandler) Register(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(h.guards.RequireAuth)
		r.Get("/", h.handleGet)
		r.Get("/count", h.handleCount)
		r.Post("/add", h.handleAdd)
		r.Delete("/remove/{courseID}", h.handleRemove)
		r.Delete("/clear", h.handleClear)
		r.Post("/checkout", h.handleCheckout)
	})
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	cart, err := h.carts.ActiveCart(r.Context(), uid)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to load cart", err))
		return
	}
	respond.JSON(w, http.StatusOK, "ok", cart)
}

func (h *CartHandler) handleCount(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	n, err := h.carts.CountCartItems(r.Context(), uid)
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to count cart items", err))
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]int64{"count": n})
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemRequest
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
	if owned {
		respond.Error(w, r, apperr.Conflict("you already own this course"))
		return
	}
	if err := h.carts.AddCartItem(ctx, uid, course.ID, course.PriceInt); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, r, apperr.Conflict("course is already in the cart"))
			return
		}
		respond.Error(w, r, storeError(err, "course"))
		return
	}
	respond.JSON(w, http.StatusCreated, "Course added to cart", map[string]int64{"course_id": course.ID})
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	uid, _ := userID(r)
	if err := h.carts.RemoveCartItem(r.Context(), uid, courseID); err != nil {
		respond.Error(w, r, storeError(err, "cart item"))
		return
	}
	respond.JSON(w, http.StatusOK, "Course removed from cart", nil)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	if err := h.carts.ClearCart(r.Context(), uid); err != nil {
		respond.Error(w, r, apperr.Server("failed to clear cart", err))
		return
	}
	respond.JSON(w, http.StatusOK, "Cart cleared", nil)
}

func (h *CartHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	granted, err := h.carts.Checkout(r.Context(), uid)
	if err != nil {
		if errors.Is(err, storage.ErrCartEmpty) {
			respond.Error(w, r, apperr.Validation("cart is empty"))
			return
		}
		respond.Error(w, r, apperr.Server("failed to check out", err))
		return
	}
	respond.JSON(w, http.StatusOK, "Checkout complete", map[string]any{"course_ids": granted})
}
