package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/repository"
)

// MerchantService owns the tenant directory: page-ID resolution, first-contact
// enrollment, profile and catalog edits, and the usage counter.
type MerchantService struct {
	repo repository.Repository
}

func NewMerchantService(repo repository.Repository) *MerchantService {
	return &MerchantService{repo: repo}
}

// HashToken one-way hashes an Instagram access token before it reaches
// storage. The raw token is never persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ResolveOrCreate looks up a merchant by Instagram page ID, creating one with
// starter defaults on first contact. Existing merchants get their token hash,
// page name and last-active timestamp refreshed. Idempotent and safe under
// concurrent calls for the same page ID.
func (s *MerchantService) ResolveOrCreate(ctx context.Context, pageID, pageName, rawToken string) (*domain.Merchant, error) {
	now := time.Now().UTC()
	candidate := &domain.Merchant{
		ID:                  uuid.NewString(),
		InstagramPageID:     pageID,
		PageName:            pageName,
		AccessTokenHash:     HashToken(rawToken),
		BusinessName:        fmt.Sprintf("%s Business", pageName),
		SubscriptionTier:    domain.TierStarter,
		MonthlyMessageLimit: domain.GetTierPlan(domain.TierStarter).MessageLimit,
		AIPersonality:       "friendly",
		DefaultLanguage:     "Arabic",
		FallbackLanguage:    "English",
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
		LastActiveAt:        now,
	}

	merchant, err := s.repo.Merchant().Upsert(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert merchant for page %s: %w", pageID, err)
	}
	return merchant, nil
}

// FindByPageID is the read-only lookup used by the webhook pipeline.
// An unknown page ID is reported as ErrMerchantNotFound, not a failure.
func (s *MerchantService) FindByPageID(ctx context.Context, pageID string) (*domain.Merchant, error) {
	merchant, err := s.repo.Merchant().GetByPageID(ctx, pageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return merchant, nil
}

func (s *MerchantService) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	merchant, err := s.repo.Merchant().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return merchant, nil
}

// IncrementUsage records one successfully dispatched reply. The increment is
// applied as an atomic column update at the storage layer.
func (s *MerchantService) IncrementUsage(ctx context.Context, merchantID string) error {
	return s.repo.Merchant().IncrementMessageCount(ctx, merchantID)
}

// UpdateProfile applies a partial profile edit. Zero-value fields in the
// input are left untouched.
func (s *MerchantService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.Merchant, error) {
	merchant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.BusinessName != "" {
		merchant.BusinessName = update.BusinessName
	}
	if update.BusinessDescription != "" {
		merchant.BusinessDescription = update.BusinessDescription
	}
	if update.BusinessCategory != "" {
		merchant.BusinessCategory = update.BusinessCategory
	}
	if update.WorkingHours != nil {
		merchant.WorkingHours = update.WorkingHours
	}
	if update.ContactInfo != nil {
		merchant.ContactInfo = update.ContactInfo
	}
	if update.AIPersonality != "" {
		merchant.AIPersonality = update.AIPersonality
	}
	if update.DefaultLanguage != "" {
		merchant.DefaultLanguage = update.DefaultLanguage
	}
	if update.FallbackLanguage != "" {
		merchant.FallbackLanguage = update.FallbackLanguage
	}
	if update.CustomInstructions != "" {
		merchant.CustomInstructions = update.CustomInstructions
	}
	merchant.UpdatedAt = time.Now().UTC()

	if err := s.repo.Merchant().Update(ctx, merchant); err != nil {
		return nil, err
	}
	return merchant, nil
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	BusinessName        string
	BusinessDescription string
	BusinessCategory    string
	WorkingHours        map[string]string
	ContactInfo         map[string]string
	AIPersonality       string
	DefaultLanguage     string
	FallbackLanguage    string
	CustomInstructions  string
}

// ReplaceCatalog persists a new catalog value wholesale. Catalog edits always
// produce a new stored value; there is no dirty tracking.
func (s *MerchantService) ReplaceCatalog(ctx context.Context, id string, catalog []domain.Product) error {
	return s.repo.Merchant().UpdateCatalog(ctx, id, catalog)
}

// AddProduct appends one product to the merchant's catalog.
func (s *MerchantService) AddProduct(ctx context.Context, id string, product domain.Product) ([]domain.Product, error) {
	merchant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	catalog := append(merchant.ProductCatalog, product)
	if err := s.repo.Merchant().UpdateCatalog(ctx, id, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// UpdateProduct replaces the product at the given catalog position.
func (s *MerchantService) UpdateProduct(ctx context.Context, id string, index int, product domain.Product) ([]domain.Product, error) {
	merchant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(merchant.ProductCatalog) {
		return nil, ErrProductNotFound
	}

	catalog := make([]domain.Product, len(merchant.ProductCatalog))
	copy(catalog, merchant.ProductCatalog)
	catalog[index] = product

	if err := s.repo.Merchant().UpdateCatalog(ctx, id, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// RemoveProduct deletes the product at the given catalog position.
func (s *MerchantService) RemoveProduct(ctx context.Context, id string, index int) ([]domain.Product, error) {
	merchant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(merchant.ProductCatalog) {
		return nil, ErrProductNotFound
	}

	catalog := make([]domain.Product, 0, len(merchant.ProductCatalog)-1)
	catalog = append(catalog, merchant.ProductCatalog[:index]...)
	catalog = append(catalog, merchant.ProductCatalog[index+1:]...)

	if err := s.repo.Merchant().UpdateCatalog(ctx, id, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// SetProductImage stores the uploaded image URL on the product at the given
// catalog position.
func (s *MerchantService) SetProductImage(ctx context.Context, id string, index int, imageURL string) ([]domain.Product, error) {
	merchant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(merchant.ProductCatalog) {
		return nil, ErrProductNotFound
	}

	catalog := make([]domain.Product, len(merchant.ProductCatalog))
	copy(catalog, merchant.ProductCatalog)
	catalog[index].ImageURL = imageURL

	if err := s.repo.Merchant().UpdateCatalog(ctx, id, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}
