package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "a3bb189e-8bf9-3888-9912-ace4e6543002"

func TestWithUserID(t *testing.T) {
	t.Run("header present", func(t *testing.T) {
		var got string
		handler := WithUserID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetUserID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(UserIDHeader, testUserID)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, testUserID, got)
	})

	t.Run("header absent passes through", func(t *testing.T) {
		called := false
		handler := WithUserID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			assert.Empty(t, GetUserID(r.Context()))
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart", nil))
		assert.True(t, called)
	})
}

func TestRequireUserID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := WithUserID(RequireUserID(next))

	t.Run("missing identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "unauthorized")
	})

	t.Run("malformed identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(UserIDHeader, "not-a-uuid")
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(UserIDHeader, testUserID)
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
