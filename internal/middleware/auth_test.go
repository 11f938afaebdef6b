package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eshop-backend/internal/middleware"
)

const secret = "test-secret"

func doRequest(t *testing.T, mws []echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	return rec, c
}

func TestAuth(t *testing.T) {
	t.Run("valid_token_sets_identity", func(t *testing.T) {
		token, err := middleware.SignToken(secret, "u1", "u1@example.com", false, time.Hour)
		require.NoError(t, err)

		rec, c := doRequest(t, []echo.MiddlewareFunc{middleware.Auth(secret)}, "Bearer "+token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", c.Get(middleware.ContextUserID))
		assert.Equal(t, "u1@example.com", c.Get(middleware.ContextEmail))
		assert.Equal(t, false, c.Get(middleware.ContextIsAdmin))
	})

	t.Run("missing_header", func(t *testing.T) {
		rec, _ := doRequest(t, []echo.MiddlewareFunc{middleware.Auth(secret)}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong_secret", func(t *testing.T) {
		token, err := middleware.SignToken("other-secret", "u1", "u1@example.com", false, time.Hour)
		require.NoError(t, err)

		rec, _ := doRequest(t, []echo.MiddlewareFunc{middleware.Auth(secret)}, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired_token", func(t *testing.T) {
		token, err := middleware.SignToken(secret, "u1", "u1@example.com", false, -time.Minute)
		require.NoError(t, err)

		rec, _ := doRequest(t, []echo.MiddlewareFunc{middleware.Auth(secret)}, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	mws := []echo.MiddlewareFunc{middleware.Auth(secret), middleware.RequireAdmin()}

	t.Run("admin_allowed", func(t *testing.T) {
		token, err := middleware.SignToken(secret, "admin1", "admin@example.com", true, time.Hour)
		require.NoError(t, err)

		rec, _ := doRequest(t, mws, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non_admin_forbidden", func(t *testing.T) {
		token, err := middleware.SignToken(secret, "u1", "u1@example.com", false, time.Hour)
		require.NoError(t, err)

		rec, _ := doRequest(t, mws, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
