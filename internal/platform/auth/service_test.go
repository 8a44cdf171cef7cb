package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/memdb"
)

const secret = "test-secret"

func newService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(memdb.New(), secret, time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.Register(ctx, "alice", "correct-horse", auth.RoleLibrarian))
	assert.ErrorIs(t, svc.Register(ctx, "alice", "another-pass", auth.RoleLibrarian), auth.ErrAlreadyExists)

	token, err := svc.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	var claims auth.Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return []byte(secret), nil })
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, auth.RoleLibrarian, claims.Role)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, auth.ErrAuthFailed)
	_, err = svc.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, auth.ErrAuthFailed)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	assert.ErrorIs(t, svc.Register(ctx, "bob", "long-enough", "patron"), auth.ErrInvalidRole)
	assert.ErrorIs(t, svc.Register(ctx, "bob", "short", auth.RoleAdmin), auth.ErrWeakPassword)
	assert.ErrorIs(t, svc.Register(ctx, "  ", "long-enough", auth.RoleAdmin), auth.ErrInvalidID)
}

func TestEnsureAdmin_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin-password"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "other-password"))

	_, err := svc.Login(ctx, "admin", "admin-password")
	assert.NoError(t, err, "the first password stays")
	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
}

func TestDeleteAndChangeID(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	require.NoError(t, svc.Register(ctx, "alice", "correct-horse", auth.RoleLibrarian))

	assert.ErrorIs(t, svc.ChangeID(ctx, "ghost", "x"), auth.ErrNotFound)
	assert.ErrorIs(t, svc.ChangeID(ctx, "alice", "   "), auth.ErrInvalidID)
	require.NoError(t, svc.ChangeID(ctx, "alice", "alice2"))
	_, err := svc.Login(ctx, "alice2", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "alice2"))
	assert.ErrorIs(t, svc.Delete(ctx, "alice2"), auth.ErrNotFound)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	svc := newService(t)
	require.NoError(t, svc.Register(ctx, "lib", "librarian-pass", auth.RoleLibrarian))
	require.NoError(t, svc.Register(ctx, "root", "admin-password", auth.RoleAdmin))
	libToken, err := svc.Login(ctx, "lib", "librarian-pass")
	require.NoError(t, err)
	adminToken, err := svc.Login(ctx, "root", "admin-password")
	require.NoError(t, err)

	r := gin.New()
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.GetString(auth.CtxUserIDKey)) }
	r.GET("/write", append(auth.Librarian(svc.Secret()), ok)...)
	r.GET("/admin", append(auth.Admin(svc.Secret()), ok)...)

	call := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call("/write", "Bearer "+libToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lib", w.Body.String())

	assert.Equal(t, http.StatusOK, call("/write", "bearer "+adminToken).Code)
	assert.Equal(t, http.StatusForbidden, call("/admin", "Bearer "+libToken).Code)
	assert.Equal(t, http.StatusOK, call("/admin", "Bearer "+adminToken).Code)
	assert.Equal(t, http.StatusUnauthorized, call("/write", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/write", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/write", "Bearer not-a-token").Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("/admin", "Bearer "+forged).Code)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "root",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("/admin", "Bearer "+expired).Code)
}
