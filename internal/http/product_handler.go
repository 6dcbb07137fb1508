package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tijndh/Mallow/internal/domain"
)

type ProductCatalog interface {
	ListProducts() []domain.Product
	GetProduct(id string) (domain.Product, error)
}

type ProductHandler struct {
	catalog ProductCatalog
}

func NewProductHandler(catalog ProductCatalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type ProductResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Subtitle    string   `json:"subtitle"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Benefits    []string `json:"benefits"`
	Usage       string   `json:"usage"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"image_url"`
	Category    string   `json:"category"`
	InStock     bool     `json:"in_stock"`
}

func toProductResponse(p domain.Product) ProductResponse {
	ingredients := p.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	benefits := p.Benefits
	if benefits == nil {
		benefits = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Subtitle:    p.Subtitle,
		Description: p.Description,
		Ingredients: ingredients,
		Benefits:    benefits,
		Usage:       p.Usage,
		Price:       p.Price.InexactFloat64(),
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		InStock:     p.InStock,
	}
}

// GET /products
func (h *ProductHandler) List(w http.ResponseWriter, _ *http.Request) {
	products := h.catalog.ListProducts()
	res := make([]ProductResponse, len(products))
	for i, p := range products {
		res[i] = toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, res)
}

// GET /products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p))
}
