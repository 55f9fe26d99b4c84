package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerServesChatPage(t *testing.T) {
	for _, path := range []string{"/", "/index.html", "/some/bookmark"} {
		rr := httptest.NewRecorder()
		Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "PersonalBot", path)
		assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"), path)
	}
}

func TestHandlerDoesNotRedirectIndexPath(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/index.html", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Location"))
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
}
