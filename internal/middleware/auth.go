package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"paymenthub/internal/domain"
)

const principalKey = "principal"

// AuthConfig holds the shared HMAC secret and expected issuer of bearer tokens.
type AuthConfig struct {
	Secret []byte
	Issuer string
}

type errorBody struct {
	Error string `json:"error"`
}

// AuthMiddleware returns middleware that requires an HS256 bearer token whose
// subject is the caller's address.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid authorization header"})
			return
		}

		var claims jwt.RegisteredClaims
		token, err := parser.ParseWithClaims(parts[1], &claims, func(t *jwt.Token) (any, error) {
			return cfg.Secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid token"})
			return
		}

		principal, err := domain.ParseAddress(claims.Subject)
		if err != nil || principal.IsZero() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid token subject"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// Principal returns the authenticated caller of the request.
func Principal(c *gin.Context) (domain.Address, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return "", false
	}
	addr, ok := v.(domain.Address)
	return addr, ok
}

// IssueToken signs a bearer token for addr valid for ttl.
func IssueToken(cfg AuthConfig, addr domain.Address, ttl time.Duration) (string, error) {
	if len(cfg.Secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   addr.String(),
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
