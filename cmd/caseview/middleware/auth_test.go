package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonmw "github.com/famcase/caseview/common/middleware"
)

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Requester-ID", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	handler := mw(func(c echo.Context) error {
		seen = GetRequester(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, seen
}

func TestExtractRequester_HeaderPresent(t *testing.T) {
	rec, seen := runMiddleware(t, ExtractRequester(), "owner-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-1", seen)
}

func TestExtractRequester_HeaderAbsentPassesThrough(t *testing.T) {
	rec, seen := runMiddleware(t, ExtractRequester(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, seen)
}

func TestExtractRequesterStrict_RejectsMissingHeader(t *testing.T) {
	rec, seen := runMiddleware(t, ExtractRequesterStrict(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen)
	assert.Contains(t, rec.Body.String(), "X-Requester-ID")
}

func TestExtractRequesterStrict_AcceptsHeader(t *testing.T) {
	rec, seen := runMiddleware(t, ExtractRequesterStrict(), "owner-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-1", seen)
}

// The rate limiter keys its check on the same context entry the auth
// middleware writes; both sides must use the shared constant.
func TestRequesterKey_SharedWithRateLimiter(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Requester-ID", "owner-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ExtractRequester()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	stored, ok := c.Get(string(commonmw.RequesterKey)).(string)
	require.True(t, ok, "requester must be stored under the shared key")
	assert.Equal(t, "owner-1", stored)
}
