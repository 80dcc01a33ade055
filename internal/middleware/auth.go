package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"motorent/internal/domain"
)

const principalKey = "principal"

// Claims are the bearer token claims. The subject is the customer or admin id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth returns middleware that requires an HS256 bearer token and stores the
// caller as a domain.Principal on the context.
func Auth(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		principal := domain.Principal{ID: claims.Subject, Role: domain.Role(claims.Role)}
		if principal.ID == "" || (principal.Role != domain.RoleCustomer && principal.Role != domain.RoleAdmin) {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole rejects principals whose role is not listed.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abortUnauthorized(c, "missing principal")
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// PrincipalFrom returns the authenticated caller set by Auth.
func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}

	principal, ok := v.(domain.Principal)
	return principal, ok
}

// SignToken issues a bearer token for a principal. Used by tooling and tests.
func SignToken(secret []byte, principal domain.Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = principal.ID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             string(principal.Role),
		RegisteredClaims: claims,
	})
	return token.SignedString(secret)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
