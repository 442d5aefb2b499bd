package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prbretas/JEWELRY/internal/domain"
	"github.com/prbretas/JEWELRY/internal/notify"
	"github.com/prbretas/JEWELRY/internal/service"
	"github.com/prbretas/JEWELRY/pkg/httputil"
	"github.com/prbretas/JEWELRY/pkg/middleware"
)

// WishlistHandler handles HTTP requests for the session wishlist and the
// notification inbox.
type WishlistHandler struct {
	sessions *service.Registry
	inbox    *notify.Inbox
	logger   *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(sessions *service.Registry, inbox *notify.Inbox, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{sessions: sessions, inbox: inbox, logger: logger}
}

// ToggleResponse reports wishlist membership after a toggle.
type ToggleResponse struct {
	ProductID    int                 `json:"product_id"`
	InWishlist   bool                `json:"in_wishlist"`
	Count        int                 `json:"count"`
	Notification domain.Notification `json:"notification"`
}

// ShareResponse carries the shareable wishlist text.
type ShareResponse struct {
	Text string `json:"text"`
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.WishlistView()})
}

// Toggle handles POST /api/v1/wishlist/{productId}/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	in, n, err := s.ToggleWishlist(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ToggleResponse{
		ProductID:    id,
		InWishlist:   in,
		Count:        len(s.Wishlist()),
		Notification: n,
	}})
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	s.ClearWishlist(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Share handles GET /api/v1/wishlist/share
func (h *WishlistHandler) Share(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ShareResponse{Text: s.ShareWishlist()}})
}

// Notifications handles GET /api/v1/notifications. Reading drains the inbox.
func (h *WishlistHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionIDFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.inbox.Drain(id)})
}
