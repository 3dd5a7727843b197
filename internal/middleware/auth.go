package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/utils"
)

// AuthMiddleware authenticates merchant dashboard sessions. The bearer token
// encodes merchant id (sub), Instagram page id and subscription tier.
type AuthMiddleware struct {
	config *config.Config
}

func NewAuthMiddleware(config *config.Config) *AuthMiddleware {
	return &AuthMiddleware{
		config: config,
	}
}

func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(bearerToken[1], &claims, func(token *jwt.Token) (any, error) {
			return []byte(m.config.JWTSecretKey), nil
		})
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Set(string(utils.MerchantIDKey), sub)
		}
		if pageID, ok := claims["instagram_page_id"].(string); ok {
			c.Set(string(utils.PageIDKey), pageID)
		}
		c.Set(string(utils.ClaimsKey), claims)
		c.Next()
	}
}

// GenerateToken mints a session token for a merchant with a fixed expiry
// window.
func (m *AuthMiddleware) GenerateToken(merchantID, pageID, tier string) (string, error) {
	claims := jwt.MapClaims{
		"sub":               merchantID,
		"instagram_page_id": pageID,
		"tier":              tier,
		"exp":               time.Now().Add(time.Duration(m.config.JWTExpirationHours) * time.Hour).Unix(),
		"iat":               time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.JWTSecretKey))
}

// ExpirySeconds reports the session lifetime for token responses.
func (m *AuthMiddleware) ExpirySeconds() int {
	return m.config.JWTExpirationHours * 3600
}

// ParseToken validates a session token and returns its claims.
func (m *AuthMiddleware) ParseToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(m.config.JWTSecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}
