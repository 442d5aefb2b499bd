package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/prbretas/JEWELRY/internal/domain"
	"github.com/prbretas/JEWELRY/internal/service"
	"github.com/prbretas/JEWELRY/pkg/httputil"
	"github.com/prbretas/JEWELRY/pkg/middleware"
	"github.com/prbretas/JEWELRY/pkg/validator"
)

// CartHandler handles HTTP requests for the session cart and checkout.
type CartHandler struct {
	sessions *service.Registry
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(sessions *service.Registry, logger *slog.Logger) *CartHandler {
	return &CartHandler{sessions: sessions, logger: logger}
}

// AddItemRequest is the JSON body for adding an item to the cart. Quantity
// defaults to 1 when omitted.
type AddItemRequest struct {
	ProductID int    `json:"product_id" validate:"required,gt=0"`
	Size      string `json:"size" validate:"max=20"`
	Metal     string `json:"metal" validate:"max=50"`
	Quantity  *int   `json:"quantity" validate:"omitnil,min=1,max=99"`
}

// UpdateQuantityRequest is the JSON body for stepping a line's quantity.
type UpdateQuantityRequest struct {
	Delta int `json:"delta" validate:"required,oneof=1 -1"`
}

// AddItemResponse is returned after a successful add.
type AddItemResponse struct {
	Cart         domain.CartView     `json:"cart"`
	Notification domain.Notification `json:"notification"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.CartView()})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	n, err := s.AddToCart(r.Context(), service.AddToCartInput{
		ProductID: req.ProductID,
		Size:      req.Size,
		Metal:     req.Metal,
		Quantity:  qty,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: AddItemResponse{Cart: s.CartView(), Notification: n},
	})
}

// UpdateQuantity handles PATCH /api/v1/cart/items/{variantKey}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	key, ok := variantKeyParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	if err := s.UpdateQuantity(r.Context(), key, req.Delta); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.CartView()})
}

// RemoveItem handles DELETE /api/v1/cart/items/{variantKey}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key, ok := variantKeyParam(w, r)
	if !ok {
		return
	}

	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	s.RemoveFromCart(r.Context(), key)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: s.CartView()})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	s.ClearCart(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /api/v1/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFor(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	result, err := s.Checkout(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// sessionFor resolves the session named by the X-Session-ID header. On
// failure it writes the error response and returns false.
func sessionFor(w http.ResponseWriter, r *http.Request, sessions *service.Registry, logger *slog.Logger) (*service.SessionService, bool) {
	s, err := sessions.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, logger)
		return nil, false
	}
	return s, true
}

// variantKeyParam returns the decoded {variantKey} segment. chi matches on
// RawPath when the request has one, so only then is the segment still escaped.
func variantKeyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "variantKey")
	var err error
	if r.URL.RawPath != "" {
		key, err = url.PathUnescape(key)
	}
	if err != nil || key == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "invalid variant key",
			},
		})
		return "", false
	}
	return key, true
}
