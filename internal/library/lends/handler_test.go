package lends_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/library/lends"
)

func newRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := setup(t)
	r := gin.New()
	lends.RegisterRoutes(r.Group("/api/v1"), f.svc)
	return r, f
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
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

func TestHandler_BorrowReturnFlow(t *testing.T) {
	r, f := newRouter(t)
	f.addBook(t, "The Great Gatsby", "9780743273565", 1)

	w := do(r, http.MethodPost, "/api/v1/books/1/borrow", lends.PatronRequest{PatronID: "246810"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var borrowed lends.OutcomeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &borrowed))
	assert.True(t, borrowed.Success)
	require.NotNil(t, borrowed.Loan)
	assert.Equal(t, "/lends/"+borrowed.Loan.LoanULID, w.Header().Get("Location"))

	w = do(r, http.MethodPost, "/api/v1/books/1/borrow", lends.PatronRequest{PatronID: "135791"})
	assert.Equal(t, http.StatusConflict, w.Code)
	var rejected lends.OutcomeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rejected))
	assert.False(t, rejected.Success)
	assert.Equal(t, lends.MsgNotAvailable, rejected.Message)

	w = do(r, http.MethodGet, "/api/v1/lends/"+borrowed.Loan.LoanULID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/books/1/return", lends.PatronRequest{PatronID: "246810"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var returned lends.OutcomeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &returned))
	assert.True(t, returned.Success)
	require.NotNil(t, returned.Fee)
	assert.Equal(t, "on time", returned.Fee.Status)

	w = do(r, http.MethodGet, "/api/v1/books/1/fee?patron_id=246810", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fee map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fee))
	assert.Contains(t, fee, "fee_amount")
	assert.Equal(t, "on time", fee["status"])
	assert.Equal(t, true, fee["found"])

	w = do(r, http.MethodGet, "/api/v1/lends?patron_id=246810&status=closed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list lends.ListLoansResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Total)
}

func TestHandler_StatusCodes(t *testing.T) {
	r, f := newRouter(t)
	f.addBook(t, "The Great Gatsby", "9780743273565", 1)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/books/1/borrow", lends.PatronRequest{PatronID: "12"}).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/books/99999/borrow", lends.PatronRequest{PatronID: "123456"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/books/x/borrow", lends.PatronRequest{PatronID: "123456"}).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/books/1/return", lends.PatronRequest{PatronID: "123456"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/books/1/fee?patron_id=1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/lends/unknown", nil).Code)
}
