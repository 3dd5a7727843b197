package service

import "errors"

var (
	// Webhook errors
	ErrMissingSignature   = errors.New("missing webhook signature")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrVerificationFailed = errors.New("webhook verification failed")

	// Merchant errors
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrQuotaExceeded    = errors.New("monthly message limit reached or account inactive")
	ErrProductNotFound  = errors.New("product not found in catalog")

	// Auth errors
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrOAuthExchange = errors.New("instagram oauth exchange failed")
)
