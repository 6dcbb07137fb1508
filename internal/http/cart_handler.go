package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tijndh/Mallow/internal/domain"
)

type CartService interface {
	CreateCart(ctx context.Context) (*domain.CartView, error)
	GetCart(ctx context.Context, cartID string) (*domain.CartView, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) (*domain.CartView, error)
	UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) (*domain.CartView, error)
	RemoveItem(ctx context.Context, cartID, productID string) (*domain.CartView, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type CartLineDTO struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   ProductResponse `json:"product"`
	ItemTotal float64         `json:"item_total"`
}

type CartResponseDTO struct {
	ID        string        `json:"id"`
	Items     []CartLineDTO `json:"items"`
	Total     float64       `json:"total"`
	ItemCount int           `json:"item_count"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func toCartResponse(v *domain.CartView) CartResponseDTO {
	items := make([]CartLineDTO, len(v.Items))
	for i, line := range v.Items {
		items[i] = CartLineDTO{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Product:   toProductResponse(line.Product),
			ItemTotal: line.ItemTotal.InexactFloat64(),
		}
	}
	return CartResponseDTO{
		ID:        v.ID,
		Items:     items,
		Total:     v.Total.InexactFloat64(),
		ItemCount: v.ItemCount,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// POST /cart
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.carts.CreateCart(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// GET /cart/{cart_id}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.carts.GetCart(ctx, chi.URLParam(r, "cart_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// POST /cart/{cart_id}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	view, err := h.carts.AddItem(ctx, chi.URLParam(r, "cart_id"), req.ProductID, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// PUT /cart/{cart_id}/items/{product_id}?quantity=N
//
// A JSON body {"quantity": N} is accepted when the query parameter is absent.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	quantity, ok := h.quantityFromRequest(w, r)
	if !ok {
		return
	}

	view, err := h.carts.UpdateItemQuantity(ctx, chi.URLParam(r, "cart_id"), chi.URLParam(r, "product_id"), quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *CartHandler) quantityFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	if q := r.URL.Query().Get("quantity"); q != "" {
		quantity, err := strconv.Atoi(q)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be an integer")
			return 0, false
		}
		return quantity, true
	}

	var req UpdateQuantityRequestDTO
	if r.Body != nil {
		if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return 0, false
		}
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return 0, false
	}
	return *req.Quantity, true
}

// DELETE /cart/{cart_id}/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.carts.RemoveItem(ctx, chi.URLParam(r, "cart_id"), chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(view))
}
