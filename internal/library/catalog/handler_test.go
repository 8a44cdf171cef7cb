package catalog_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/library/catalog"
)

func newRouter(t *testing.T, guard ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newService(t)
	r := gin.New()
	catalog.RegisterRoutes(r.Group("/api/v1"), svc, guard...)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_AddAndGetBook(t *testing.T) {
	r := newRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/books", catalog.AddBookRequest{
		Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", ISBN: "9780743273565", TotalCopies: 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created catalog.AddBookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	require.NotNil(t, created.Book)
	assert.Equal(t, "/books/1", w.Header().Get("Location"))

	w = doJSON(r, http.MethodGet, "/api/v1/books/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got catalog.BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "9780743273565", got.ISBN)
	assert.Equal(t, 3, got.AvailableCopies)
}

func TestHandler_AddBookFailures(t *testing.T) {
	r := newRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/books", catalog.AddBookRequest{Title: "Book", ISBN: "12345", TotalCopies: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var res catalog.AddBookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "13 digits")

	ok := catalog.AddBookRequest{Title: "Book", ISBN: "1234567890123", TotalCopies: 1}
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/books", ok).Code)
	assert.Equal(t, http.StatusConflict, doJSON(r, http.MethodPost, "/api/v1/books", ok).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", bytes.NewBufferString("{not json"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GetBookErrors(t *testing.T) {
	r := newRouter(t)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/v1/books/42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/v1/books/abc", nil).Code)
}

func TestHandler_GuardRunsBeforeAddBook(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	r := newRouter(t, deny)

	w := doJSON(r, http.MethodPost, "/api/v1/books", catalog.AddBookRequest{Title: "Book", ISBN: "1234567890123", TotalCopies: 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// reads stay public
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/v1/books", nil).Code)
}
