package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": "UNAUTHENTICATED", "message": msg}})
}

// RequireAuth: Authorization: Bearer <token> を検証して context に sub/role を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(c *gin.Context) {
		scheme, tokenStr, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenStr) == "" {
			abort(c, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}

		var claims Claims
		token, err := parser.ParseWithClaims(strings.TrimSpace(tokenStr), &claims, keyFunc)
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Subject == "" {
			abort(c, http.StatusUnauthorized, "missing sub")
			return
		}

		c.Set(CtxUserIDKey, claims.Subject)
		c.Set(CtxRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole は RequireAuth の後ろに置く
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if r != "" {
			allowed[r] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"code": "FORBIDDEN", "message": "forbidden"}})
			return
		}
		c.Next()
	}
}

// Librarian guards catalog writes.
func Librarian(secret []byte) []gin.HandlerFunc {
	return []gin.HandlerFunc{RequireAuth(secret), RequireRole(RoleLibrarian, RoleAdmin)}
}

// Admin guards account management.
func Admin(secret []byte) []gin.HandlerFunc {
	return []gin.HandlerFunc{RequireAuth(secret), RequireRole(RoleAdmin)}
}
