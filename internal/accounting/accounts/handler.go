package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/voucherdesk/internal/platform/httpx"
)

type Handler struct {
	directory *Directory
	logger    *slog.Logger
}

func NewHandler(logger *slog.Logger, directory *Directory) *Handler {
	return &Handler{logger: logger, directory: directory}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Search)
	r.Get("/{code}", h.Lookup)
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	acc, found, err := h.directory.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.logger.Error("lookup account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !found {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, acc)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	accounts, err := h.directory.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.logger.Error("search accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}
