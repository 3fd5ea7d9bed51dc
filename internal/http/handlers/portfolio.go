package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/coursenese-be/internal/apperr"
	"github.com/hongminglow/coursenese-be/internal/http/respond"
	"github.com/hongminglow/coursenese-be/internal/storage"
)

type PortfolioHandler struct {
	store storage.PortfolioStore
}

// NewPortfolioHandler builds the public /portfolios routes.
func NewPortfolioHandler(store storage.PortfolioStore) *PortfolioHandler {
	return &PortfolioHandler{store: store}
}

func (h *PortfolioHandler) Register(r chi.Router) {
	r.Get("/portfolios", h.handleList)
	r.Get("/portfolios/{slug}", h.handleDetail)
}

func (h *PortfolioHandler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListPublishedPortfolios(r.Context())
	if err != nil {
		respond.Error(w, r, apperr.Server("failed to list portfolios", err))
		return
	}
	respond.JSON(w, http.StatusOK, "ok", items)
}

func (h *PortfolioHandler) handleDetail(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.FindPublishedPortfolio(r.Context(), strings.TrimSpace(chi.URLParam(r, "slug")))
	if err != nil {
		respond.Error(w, r, storeError(err, "portfolio"))
		return
	}
	respond.JSON(w, http.StatusOK, "ok", item)
}
