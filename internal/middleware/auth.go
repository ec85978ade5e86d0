package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pigjjun/board/backend/internal/models"
)

const tokenTTL = 72 * time.Hour

// IssueToken signs a session token for user.
func IssueToken(secret []byte, user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"handle":  user.Handle,
		"email":   user.Email,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(secret)
}

func parseToken(secret []byte, header string) (int, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, errors.New("missing bearer token")
	}
	token, err := jwt.Parse(header[7:], func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	claims := token.Claims.(jwt.MapClaims)
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("token has no user")
	}
	return int(id), nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's id under "user_id".
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseToken(secret, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", id)
		c.Next()
	}
}

// OptionalAuth sets "user_id" when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := parseToken(secret, c.GetHeader("Authorization")); err == nil {
			c.Set("user_id", id)
		}
		c.Next()
	}
}
