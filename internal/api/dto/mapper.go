package dto

import (
	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
)

func ToMerchantResponse(m *domain.Merchant) MerchantResponse {
	catalog := m.ProductCatalog
	if catalog == nil {
		catalog = []domain.Product{}
	}

	return MerchantResponse{
		ID:                  m.ID,
		InstagramPageID:     m.InstagramPageID,
		PageName:            m.PageName,
		BusinessName:        m.BusinessName,
		BusinessDescription: m.BusinessDescription,
		BusinessCategory:    m.BusinessCategory,
		SubscriptionTier:    string(m.SubscriptionTier),
		MonthlyMessageCount: m.MonthlyMessageCount,
		MonthlyMessageLimit: m.MonthlyMessageLimit,
		UsagePercentage:     m.UsagePercentage(),
		CanSendMessages:     m.CanSendMessage(),
		ProductCatalog:      catalog,
		WorkingHours:        m.WorkingHours,
		ContactInfo:         m.ContactInfo,
		AIPersonality:       m.AIPersonality,
		DefaultLanguage:     m.DefaultLanguage,
		FallbackLanguage:    m.FallbackLanguage,
		CustomInstructions:  m.CustomInstructions,
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		LastActiveAt:        m.LastActiveAt,
	}
}

func ToProducts(reqs []ProductRequest) []domain.Product {
	products := make([]domain.Product, len(reqs))
	for i, r := range reqs {
		products[i] = ToProduct(r)
	}
	return products
}

func ToProduct(r ProductRequest) domain.Product {
	return domain.Product{
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		Availability: r.Availability,
		Category:     r.Category,
		ImageURL:     r.ImageURL,
	}
}

func ToAnalyticsResponse(m *domain.Merchant) AnalyticsResponse {
	status := "Inactive"
	if m.IsActive {
		status = "Active"
	}

	return AnalyticsResponse{
		SubscriptionTier:  string(m.SubscriptionTier),
		MessagesThisMonth: m.MonthlyMessageCount,
		MessageLimit:      m.MonthlyMessageLimit,
		UsagePercentage:   m.UsagePercentage(),
		ProductsCount:     len(m.ProductCatalog),
		AccountStatus:     status,
		CreatedAt:         m.CreatedAt,
		LastActive:        m.LastActiveAt,
	}
}

func ToSubscriptionResponse(m *domain.Merchant) SubscriptionResponse {
	plan := domain.GetTierPlan(m.SubscriptionTier)

	return SubscriptionResponse{
		CurrentTier:       string(m.SubscriptionTier),
		MessageLimit:      m.MonthlyMessageLimit,
		MessagesUsed:      m.MonthlyMessageCount,
		MessagesRemaining: m.MonthlyMessageLimit - m.MonthlyMessageCount,
		CanSendMessages:   m.CanSendMessage(),
		TierPrice:         plan.Price,
		AvailableTiers:    domain.TierPlans,
	}
}
