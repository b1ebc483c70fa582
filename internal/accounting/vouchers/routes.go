package vouchers

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Post("/compose", h.Compose)
	r.Post("/approve", h.Approve)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/purchase-book", h.CreatePurchaseBook)
	r.Get("/{id}/pdf", h.ExportPDF)
	r.Get("/{id}/xlsx", h.ExportXLSX)
}
