package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tijndh/Mallow/internal/metrics"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	CORSOrigins        []string
	Metrics            *metrics.ServerMetrics
	// MetricsHandler serves /metrics. Nil disables the endpoint.
	MetricsHandler http.Handler
}

type Handlers struct {
	Products *ProductHandler
	Carts    *CartHandler
	Checkout *CheckoutHandler
	Contact  *ContactHandler
}

// NewRouter mounts the shop API under /api and mirrors it at the root.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxRequestBodySize > 0 {
		r.Use(MaxBodyMiddleware(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	api := func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"message": "Mallow API"})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{product_id}", h.Products.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", h.Carts.CreateCart)
			r.Get("/{cart_id}", h.Carts.GetCart)
			r.Post("/{cart_id}/items", h.Carts.AddItem)
			r.Put("/{cart_id}/items/{product_id}", h.Carts.UpdateQuantity)
			r.Delete("/{cart_id}/items/{product_id}", h.Carts.RemoveItem)
		})

		r.Post("/checkout", h.Checkout.CreateCheckout)
		r.Get("/checkout/status/{session_id}", h.Checkout.GetStatus)
		r.Post("/webhook/stripe", h.Checkout.Webhook)

		r.Post("/contact", h.Contact.Submit)
	}

	r.Route("/api", api)
	r.Group(api)

	return r
}
