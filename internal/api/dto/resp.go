package dto

import (
	"time"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
)

// WebhookAck is the fixed success payload returned the moment a delivery
// passes signature and format checks.
type WebhookAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// InstagramAuthResponse is returned from the OAuth callback.
type InstagramAuthResponse struct {
	AccessToken  string `json:"access_token"`
	MerchantID   string `json:"merchant_id"`
	PageName     string `json:"page_name"`
	BusinessName string `json:"business_name"`
}

// TokenResponse is returned from the session refresh endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// MerchantResponse is the dashboard's view of a merchant record. The token
// hash never leaves the service.
type MerchantResponse struct {
	ID                  string            `json:"id"`
	InstagramPageID     string            `json:"instagram_page_id"`
	PageName            string            `json:"page_name"`
	BusinessName        string            `json:"business_name"`
	BusinessDescription string            `json:"business_description"`
	BusinessCategory    string            `json:"business_category"`
	SubscriptionTier    string            `json:"subscription_tier"`
	MonthlyMessageCount int               `json:"monthly_message_count"`
	MonthlyMessageLimit int               `json:"monthly_message_limit"`
	UsagePercentage     float64           `json:"usage_percentage"`
	CanSendMessages     bool              `json:"can_send_messages"`
	ProductCatalog      []domain.Product  `json:"product_catalog"`
	WorkingHours        map[string]string `json:"working_hours"`
	ContactInfo         map[string]string `json:"contact_info"`
	AIPersonality       string            `json:"ai_personality"`
	DefaultLanguage     string            `json:"default_language"`
	FallbackLanguage    string            `json:"fallback_language"`
	CustomInstructions  string            `json:"custom_instructions"`
	IsActive            bool              `json:"is_active"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	LastActiveAt        time.Time         `json:"last_active_at"`
}

// CatalogResponse returns the stored catalog after an edit.
type CatalogResponse struct {
	Products []domain.Product `json:"products"`
}

// AnalyticsResponse is the dashboard usage summary.
type AnalyticsResponse struct {
	SubscriptionTier  string    `json:"subscription_tier"`
	MessagesThisMonth int       `json:"messages_this_month"`
	MessageLimit      int       `json:"message_limit"`
	UsagePercentage   float64   `json:"usage_percentage"`
	ProductsCount     int       `json:"products_count"`
	AccountStatus     string    `json:"account_status"`
	CreatedAt         time.Time `json:"created_at"`
	LastActive        time.Time `json:"last_active"`
}

// SubscriptionResponse reports quota standing and the available plans.
type SubscriptionResponse struct {
	CurrentTier       string                                     `json:"current_tier"`
	MessageLimit      int                                        `json:"message_limit"`
	MessagesUsed      int                                        `json:"messages_used"`
	MessagesRemaining int                                        `json:"messages_remaining"`
	CanSendMessages   bool                                       `json:"can_send_messages"`
	TierPrice         int                                        `json:"tier_price"`
	AvailableTiers    map[domain.SubscriptionTier]domain.TierPlan `json:"available_tiers"`
}

// TestAIResponse carries a dry-run reply back to the dashboard.
type TestAIResponse struct {
	Status       string `json:"status"`
	TestInput    string `json:"test_input"`
	AIResponse   string `json:"ai_response"`
	BusinessName string `json:"business_name"`
	ModelUsed    string `json:"model_used"`
}

// AuthURLResponse carries the assembled OAuth URL for the frontend redirect.
type AuthURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}
