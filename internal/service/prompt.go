package service

import (
	"encoding/json"
	"fmt"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
)

const (
	defaultBusinessCategory    = "General Business"
	defaultBusinessDescription = "A great business serving customers"
	defaultPersonality         = "friendly"
	defaultPrimaryLanguage     = "Arabic"
	defaultFallbackLanguage    = "English"
	defaultHoursSummary        = "We're available during business hours"
)

// placeholderCatalog is injected when a merchant has no products yet, so the
// model always has a catalog section to answer from.
var placeholderCatalog = []domain.Product{
	{
		Name:         "Sample Product",
		Description:  "A great product for customers",
		Price:        "Contact for pricing",
		Availability: "In stock",
	},
}

// BuildSystemPrompt renders the tenant-scoped system prompt. It is a pure
// function of the merchant: the same merchant state always yields a
// byte-identical prompt (map fields are serialized with sorted keys).
func BuildSystemPrompt(m *domain.Merchant) string {
	category := m.BusinessCategory
	if category == "" {
		category = defaultBusinessCategory
	}

	description := m.BusinessDescription
	if description == "" {
		description = defaultBusinessDescription
	}

	personality := m.AIPersonality
	if personality == "" {
		personality = defaultPersonality
	}

	primaryLang := m.DefaultLanguage
	if primaryLang == "" {
		primaryLang = defaultPrimaryLanguage
	}

	fallbackLang := m.FallbackLanguage
	if fallbackLang == "" {
		fallbackLang = defaultFallbackLanguage
	}

	hoursInfo := defaultHoursSummary
	if len(m.WorkingHours) > 0 {
		// encoding/json sorts map keys, keeping the prompt deterministic.
		if encoded, err := json.Marshal(m.WorkingHours); err == nil {
			hoursInfo = fmt.Sprintf("Our working hours: %s", encoded)
		}
	}

	catalog := m.ProductCatalog
	if len(catalog) == 0 {
		catalog = placeholderCatalog
	}
	catalogJSON, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		catalogJSON, _ = json.MarshalIndent(placeholderCatalog, "", "  ")
	}

	prompt := fmt.Sprintf(`You are a helpful AI assistant for %s, an Instagram business.

BUSINESS INFORMATION:
- Business Name: %s
- Category: %s
- Description: %s
- Instagram: @%s
- %s

COMMUNICATION STYLE:
- Be %s and professional
- Respond in %s primarily, fallback to %s
- Keep responses concise and helpful
- Always be polite and customer-focused

PRODUCT CATALOG:
%s

CAPABILITIES:
- Answer questions about products and services
- Provide pricing information
- Help with orders and inquiries
- Give business information
- Handle customer service requests

GUIDELINES:
- If asked about products, refer to the catalog above
- For orders, collect: product name, quantity, customer info, delivery address
- If you can't help, politely direct them to contact us directly
- Never make up information not provided in the context
- Be helpful but don't overpromise

IMPORTANT: Keep responses under 500 characters for Instagram DM limits.`,
		m.BusinessName,
		m.BusinessName,
		category,
		description,
		m.PageName,
		hoursInfo,
		personality,
		primaryLang,
		fallbackLang,
		catalogJSON,
	)

	if m.CustomInstructions != "" {
		prompt += fmt.Sprintf("\n\nADDITIONAL INSTRUCTIONS:\n%s", m.CustomInstructions)
	}

	return prompt
}

// FormatUserMessage wraps the raw inbound text with the sender's identity for
// the model's user turn.
func FormatUserMessage(senderID, messageText string) string {
	return fmt.Sprintf("Customer (ID: %s) says: %s", senderID, messageText)
}
