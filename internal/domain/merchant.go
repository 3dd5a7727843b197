package domain

import (
	"time"
)

type SubscriptionTier string

const (
	TierStarter  SubscriptionTier = "starter"
	TierGrowth   SubscriptionTier = "growth"
	TierBusiness SubscriptionTier = "business"
)

// TierPlan defines the monthly message allowance and price for a subscription tier.
type TierPlan struct {
	MessageLimit int `json:"messages"`
	Price        int `json:"price"`
}

// TierPlans maps subscription tiers to their plans. Unknown tiers fall back to starter.
var TierPlans = map[SubscriptionTier]TierPlan{
	TierStarter:  {MessageLimit: 1000, Price: 29},
	TierGrowth:   {MessageLimit: 5000, Price: 59},
	TierBusiness: {MessageLimit: 15000, Price: 99},
}

func GetTierPlan(tier SubscriptionTier) TierPlan {
	if plan, ok := TierPlans[tier]; ok {
		return plan
	}
	return TierPlans[TierStarter]
}

// Product is one entry of a merchant's catalog, stored as jsonb on the merchant row.
type Product struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
	Category     string `json:"category,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

type Merchant struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	// Instagram integration. The page ID is the natural key for inbound webhook lookup.
	InstagramPageID string `gorm:"type:text;not null;uniqueIndex" json:"instagram_page_id"`
	PageName        string `gorm:"type:text;not null" json:"page_name"`
	AccessTokenHash string `gorm:"type:text;not null" json:"-"`

	// Business information
	BusinessName        string `gorm:"type:text;not null" json:"business_name"`
	BusinessDescription string `gorm:"type:text" json:"business_description"`
	BusinessCategory    string `gorm:"type:text" json:"business_category"`

	// Subscription and usage
	SubscriptionTier    SubscriptionTier `gorm:"type:text;not null;default:'starter'" json:"subscription_tier"`
	MonthlyMessageCount int              `gorm:"not null;default:0" json:"monthly_message_count"`
	MonthlyMessageLimit int              `gorm:"not null;default:1000" json:"monthly_message_limit"`

	// Business configuration
	ProductCatalog []Product         `gorm:"type:jsonb;serializer:json" json:"product_catalog"`
	WorkingHours   map[string]string `gorm:"type:jsonb;serializer:json" json:"working_hours"`
	ContactInfo    map[string]string `gorm:"type:jsonb;serializer:json" json:"contact_info"`

	// AI configuration
	AIPersonality      string `gorm:"type:text;not null;default:'friendly'" json:"ai_personality"`
	DefaultLanguage    string `gorm:"type:text;not null;default:'Arabic'" json:"default_language"`
	FallbackLanguage   string `gorm:"type:text;not null;default:'English'" json:"fallback_language"`
	CustomInstructions string `gorm:"type:text" json:"custom_instructions"`

	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
	LastActiveAt time.Time `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"last_active_at"`
}

func (Merchant) TableName() string {
	return "merchants"
}

// CanSendMessage reports whether the merchant may send another reply this
// billing period. The monthly counter is only ever reset by the billing
// rollover job, never here.
func (m *Merchant) CanSendMessage() bool {
	if !m.IsActive {
		return false
	}
	return m.MonthlyMessageCount < m.MonthlyMessageLimit
}

// UsagePercentage returns how much of the monthly allowance is consumed.
func (m *Merchant) UsagePercentage() float64 {
	if m.MonthlyMessageLimit == 0 {
		return 100.0
	}
	return float64(m.MonthlyMessageCount) / float64(m.MonthlyMessageLimit) * 100
}
