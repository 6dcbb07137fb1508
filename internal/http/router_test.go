package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tijndh/Mallow/internal/catalog"
	"github.com/Tijndh/Mallow/internal/domain"
	"github.com/Tijndh/Mallow/internal/metrics"
)

func newTestRouter(m *metrics.ServerMetrics) (http.Handler, *CartServiceMock) {
	carts := &CartServiceMock{view: balsemView()}
	checkout := &CheckoutServiceMock{
		session: &domain.CheckoutSession{URL: "u", SessionID: "cs_1"},
		status:  &domain.CheckoutStatus{Status: domain.SessionStatusOpen, PaymentStatus: domain.PaymentStatusUnpaid},
	}
	h := Handlers{
		Products: NewProductHandler(catalog.Default()),
		Carts:    NewCartHandler(carts, time.Second),
		Checkout: NewCheckoutHandler(checkout, time.Second),
		Contact:  NewContactHandler(&ContactServiceMock{}, time.Second),
	}
	return NewRouter(h, RouterConfig{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		CORSOrigins:        []string{"https://mallow.nl"},
		Metrics:            m,
	}), carts
}

func TestRouter_Routes(t *testing.T) {
	router, _ := newTestRouter(nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/", "", http.StatusOK},
		{http.MethodGet, "/api/products", "", http.StatusOK},
		{http.MethodGet, "/products", "", http.StatusOK},
		{http.MethodGet, "/api/products/honingbalsem", "", http.StatusOK},
		{http.MethodGet, "/api/products/zeep", "", http.StatusNotFound},
		{http.MethodPost, "/api/cart", "", http.StatusOK},
		{http.MethodGet, "/api/cart/cart-1", "", http.StatusOK},
		{http.MethodGet, "/cart/cart-1", "", http.StatusOK},
		{http.MethodPost, "/api/cart/cart-1/items", `{"product_id":"honingbalsem","quantity":1}`, http.StatusOK},
		{http.MethodPut, "/api/cart/cart-1/items/honingbalsem?quantity=2", "", http.StatusOK},
		{http.MethodDelete, "/api/cart/cart-1/items/honingbalsem", "", http.StatusOK},
		{http.MethodPost, "/api/checkout", `{"cart_id":"cart-1","origin_url":"https://mallow.nl"}`, http.StatusOK},
		{http.MethodGet, "/api/checkout/status/cs_1", "", http.StatusOK},
		{http.MethodPost, "/api/webhook/stripe", `{}`, http.StatusOK},
		{http.MethodPost, "/api/contact", `{"name":"a","email":"b","subject":"c","message":"d"}`, http.StatusOK},
		{http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_RootMessage(t *testing.T) {
	router, _ := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))

	assert.JSONEq(t, `{"message":"Mallow API"}`, rec.Body.String())
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	router, _ := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRouter_CORS(t *testing.T) {
	router, _ := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "https://mallow.nl")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://mallow.nl", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewServerMetrics("test", reg)
	router, _ := newTestRouter(m)

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart/cart-1", nil))
	}

	require.Equal(t, 3.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/cart/{cart_id}", "200")))
}
