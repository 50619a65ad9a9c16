package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/middleware"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

const handlerTestUser = "a3bb189e-8bf9-3888-9912-ace4e6543002"

// stubCartService overrides only the methods a test exercises; calling an
// unstubbed method panics, which is the failure we want.
type stubCartService struct {
	service.CartService

	getCart func(ctx context.Context, userID string) (*domain.PricedCart, error)
	addItem func(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error)
	update  func(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error)
}

func (s *stubCartService) GetCart(ctx context.Context, userID string) (*domain.PricedCart, error) {
	return s.getCart(ctx, userID)
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error) {
	return s.addItem(ctx, userID, productID, quantity)
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error) {
	return s.update(ctx, userID, productID, quantity)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

// identified builds a request carrying the test user's identity, the way the
// middleware chain would.
func identified(method, target string, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), middleware.UserIDContextKey, handlerTestUser)
	return r.WithContext(ctx)
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error
}

func TestCartHandlerAddItem(t *testing.T) {
	t.Run("creates line", func(t *testing.T) {
		var gotProduct string
		var gotQty int32
		carts := &stubCartService{
			addItem: func(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error) {
				assert.Equal(t, handlerTestUser, userID)
				gotProduct, gotQty = productID, quantity
				return &domain.Cart{Total: 100}, nil
			},
		}
		h := NewCartHandler(carts, discardLogger())

		w := httptest.NewRecorder()
		h.AddItem(w, identified(http.MethodPost, "/cart/items",
			`{"productId":"b4cc289e-8bf9-3888-9912-ace4e6543003","quantity":2}`))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "b4cc289e-8bf9-3888-9912-ace4e6543003", gotProduct)
		assert.Equal(t, int32(2), gotQty)
	})

	t.Run("validation failure names fields", func(t *testing.T) {
		h := NewCartHandler(&stubCartService{}, discardLogger())

		w := httptest.NewRecorder()
		h.AddItem(w, identified(http.MethodPost, "/cart/items",
			`{"productId":"not-a-uuid","quantity":0}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		errBody := decodeErrorBody(t, w)
		assert.Equal(t, domain.EINVALID, errBody["code"])
		fields, ok := errBody["fields"].(map[string]any)
		require.True(t, ok, "expected per-field detail")
		assert.Contains(t, fields, "productId")
		assert.Contains(t, fields, "quantity")
	})

	t.Run("empty body", func(t *testing.T) {
		h := NewCartHandler(&stubCartService{}, discardLogger())

		w := httptest.NewRecorder()
		h.AddItem(w, identified(http.MethodPost, "/cart/items", ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		h := NewCartHandler(&stubCartService{}, discardLogger())

		w := httptest.NewRecorder()
		h.AddItem(w, identified(http.MethodPost, "/cart/items", `{"productId":`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stock conflict maps to 409", func(t *testing.T) {
		carts := &stubCartService{
			addItem: func(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error) {
				return nil, domain.Conflict("cart.addItem", "insufficient stock")
			},
		}
		h := NewCartHandler(carts, discardLogger())

		w := httptest.NewRecorder()
		h.AddItem(w, identified(http.MethodPost, "/cart/items",
			`{"productId":"b4cc289e-8bf9-3888-9912-ace4e6543003","quantity":500}`))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, domain.ECONFLICT, decodeErrorBody(t, w)["code"])
	})
}

func TestCartHandlerGetCart(t *testing.T) {
	t.Run("missing cart maps to 404", func(t *testing.T) {
		carts := &stubCartService{
			getCart: func(ctx context.Context, userID string) (*domain.PricedCart, error) {
				return nil, domain.NotFound("cart.getCart", "cart", userID)
			},
		}
		h := NewCartHandler(carts, discardLogger())

		w := httptest.NewRecorder()
		h.GetCart(w, identified(http.MethodGet, "/cart", ""))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, domain.ENOTFOUND, decodeErrorBody(t, w)["code"])
	})

	t.Run("internal errors hide detail", func(t *testing.T) {
		carts := &stubCartService{
			getCart: func(ctx context.Context, userID string) (*domain.PricedCart, error) {
				return nil, domain.Internal(assert.AnError, "cart.getCart", "database exploded")
			},
		}
		h := NewCartHandler(carts, discardLogger())

		w := httptest.NewRecorder()
		h.GetCart(w, identified(http.MethodGet, "/cart", ""))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		errBody := decodeErrorBody(t, w)
		assert.Equal(t, domain.EINTERNAL, errBody["code"])
		assert.NotContains(t, errBody["message"], "exploded")
	})
}

func TestCartHandlerUpdateItem(t *testing.T) {
	carts := &stubCartService{
		update: func(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error) {
			assert.Equal(t, "b4cc289e-8bf9-3888-9912-ace4e6543003", productID)
			assert.Equal(t, int32(5), quantity)
			return &domain.Cart{}, nil
		},
	}
	h := NewCartHandler(carts, discardLogger())

	r := identified(http.MethodPatch, "/cart/items/b4cc289e-8bf9-3888-9912-ace4e6543003", `{"quantity":5}`)
	r.SetPathValue("productID", "b4cc289e-8bf9-3888-9912-ace4e6543003")
	w := httptest.NewRecorder()
	h.UpdateItem(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}
