package dto

// InstagramAuthRequest carries the OAuth callback parameters from the
// frontend.
type InstagramAuthRequest struct {
	Code  string `json:"code" binding:"required"`
	State string `json:"state"`
}

// UpdateProfileRequest carries a partial profile edit; empty fields are left
// unchanged.
type UpdateProfileRequest struct {
	BusinessName        string            `json:"business_name"`
	BusinessDescription string            `json:"business_description"`
	BusinessCategory    string            `json:"business_category"`
	WorkingHours        map[string]string `json:"working_hours"`
	ContactInfo         map[string]string `json:"contact_info"`
	AIPersonality       string            `json:"ai_personality"`
	DefaultLanguage     string            `json:"default_language"`
	FallbackLanguage    string            `json:"fallback_language"`
	CustomInstructions  string            `json:"custom_instructions"`
}

// ProductRequest is one catalog entry in an add/update call.
type ProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
	Category     string `json:"category"`
	ImageURL     string `json:"image_url"`
}

// ReplaceCatalogRequest replaces the entire catalog in one call.
type ReplaceCatalogRequest struct {
	Products []ProductRequest `json:"products" binding:"required"`
}

// TestAIRequest is a dashboard-triggered dry run of the response generator.
type TestAIRequest struct {
	Message string `json:"message" binding:"required"`
}
