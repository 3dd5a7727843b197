package utils

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type ContextKey string

const (
	ClaimsKey     ContextKey = "claims"
	MerchantIDKey ContextKey = "merchant_id"
	PageIDKey     ContextKey = "page_id"
)

var (
	ErrNoClaimsInContext     = errors.New("no claims found in context")
	ErrNoMerchantIDInClaims  = errors.New("no merchant id found in claims")
	ErrInvalidMerchantIDType = errors.New("merchant id must be a string")
)

// GetMerchantIDFromContext extracts the authenticated merchant's ID from the
// session claims placed in the context by the auth middleware.
func GetMerchantIDFromContext(c context.Context) (string, error) {
	claims, ok := c.Value(ClaimsKey).(jwt.MapClaims)
	if !ok {
		return "", ErrNoClaimsInContext
	}

	merchantID, exists := claims["sub"]
	if !exists {
		return "", ErrNoMerchantIDInClaims
	}

	merchantIDStr, ok := merchantID.(string)
	if !ok {
		return "", ErrInvalidMerchantIDType
	}

	return merchantIDStr, nil
}
