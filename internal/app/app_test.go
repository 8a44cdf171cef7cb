package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"library-backend/internal/app"
	"library-backend/internal/platform/config"
)

const testConfig = `
mode: dev
storage: memory
auth:
  jwt_secret: app-test-secret
  bootstrap_admin:
    id: admin
    password: admin-password
seed_sample_data: true
`

func newApp(t *testing.T) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)

	a, err := app.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func do(t *testing.T, a *app.App, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestApp_EndToEnd(t *testing.T) {
	a := newApp(t)

	w, _ := do(t, a, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// サンプルデータ
	w, body := do(t, a, http.MethodGet, "/api/v1/books", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["total"])

	// 書籍登録は要ログイン
	newBook := map[string]any{"title": "Dune", "author": "Frank Herbert", "isbn": "9780441172719", "total_copies": 1}
	w, _ = do(t, a, http.MethodPost, "/api/v1/books", "", newBook)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = do(t, a, http.MethodPost, "/api/v1/login", "", map[string]any{"id": "admin", "password": "admin-password"})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	w, body = do(t, a, http.MethodPost, "/api/v1/books", token, newBook)
	require.Equal(t, http.StatusCreated, w.Code, body)
	book := body["book"].(map[string]any)
	id := int(book["book_id"].(float64))

	// 検索
	w, body = do(t, a, http.MethodGet, "/api/v1/books/search?q=herbert&field=author", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	borrowPath := "/api/v1/books/" + itoa(id) + "/borrow"
	returnPath := "/api/v1/books/" + itoa(id) + "/return"
	patron := map[string]any{"patron_id": "654321"}

	w, body = do(t, a, http.MethodPost, borrowPath, "", patron)
	require.Equal(t, http.StatusCreated, w.Code, body)
	assert.Equal(t, true, body["success"])

	w, body = do(t, a, http.MethodPost, borrowPath, "", map[string]any{"patron_id": "111111"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "This book is currently not available.", body["message"])

	w, body = do(t, a, http.MethodGet, "/api/v1/patrons/654321/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["borrowed_count"])

	w, body = do(t, a, http.MethodGet, "/api/v1/books/"+itoa(id)+"/fee?patron_id=654321", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, "on time", body["status"])

	w, body = do(t, a, http.MethodPost, returnPath, "", patron)
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Contains(t, body["message"], "Returned on time")

	w, body = do(t, a, http.MethodPost, returnPath, "", patron)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestApp_AccountsRequireAdmin(t *testing.T) {
	a := newApp(t)

	_, body := do(t, a, http.MethodPost, "/api/v1/login", "", map[string]any{"id": "admin", "password": "admin-password"})
	admin := body["token"].(string)

	w, _ := do(t, a, http.MethodPost, "/api/v1/accounts", admin, map[string]any{"id": "lib", "password": "librarian-pass", "role": "librarian"})
	require.Equal(t, http.StatusCreated, w.Code)

	_, body = do(t, a, http.MethodPost, "/api/v1/login", "", map[string]any{"id": "lib", "password": "librarian-pass"})
	lib := body["token"].(string)

	w, _ = do(t, a, http.MethodPost, "/api/v1/accounts", lib, map[string]any{"id": "x", "password": "whatever-pass", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, a, http.MethodPost, "/api/v1/books", lib,
		map[string]any{"title": "Emma", "author": "Jane Austen", "isbn": "9780141439587", "total_copies": 2})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestApp_UnknownRoute(t *testing.T) {
	a := newApp(t)
	w, body := do(t, a, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotNil(t, body["error"])
}

func TestApp_LendingRulesFromConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg, err := config.Parse([]byte(testConfig + "lending:\n  loan_period_days: 21\n  max_open_loans: 3\n"))
	require.NoError(t, err)

	a, err := app.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rules := a.Lends.Rules()
	assert.Equal(t, 21, rules.LoanPeriodDays)
	assert.Equal(t, 3, rules.MaxOpenLoans)
	assert.Equal(t, "15.00", rules.Fees.Cap.StringFixed(2))
}

func TestRulesFromConfig_RejectsBadFees(t *testing.T) {
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	cfg.Fees.Cap = "lots"
	_, err = app.RulesFromConfig(cfg)
	assert.Error(t, err)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

var ginParam = regexp.MustCompile(`:([A-Za-z_]+)`)

// API ルートと swagger ドキュメントのずれを検出する
func TestApp_EveryRouteIsDocumented(t *testing.T) {
	a := newApp(t)

	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.Equal(t, "/api/v1", doc.BasePath)

	documented := map[string]bool{}
	for path, ops := range doc.Paths {
		for method := range ops {
			documented[strings.ToUpper(method)+" "+path] = true
		}
	}

	routed := map[string]bool{}
	for _, r := range a.Router.Routes() {
		if !strings.HasPrefix(r.Path, doc.BasePath+"/") {
			continue
		}
		path := ginParam.ReplaceAllString(strings.TrimPrefix(r.Path, doc.BasePath), "{$1}")
		key := r.Method + " " + path
		routed[key] = true
		assert.True(t, documented[key], "route %s is missing from docs", key)
	}
	for key := range documented {
		assert.True(t, routed[key], "docs list %s but no route serves it", key)
	}
}
