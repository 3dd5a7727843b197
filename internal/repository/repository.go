package repository

import (
	"context"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
)

//go:generate mockery --name MerchantRepository --output ../mocks
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) (*domain.Merchant, error)
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	// GetByPageID resolves a merchant by Instagram page ID. "not found" is a
	// normal outcome and is reported as gorm.ErrRecordNotFound.
	GetByPageID(ctx context.Context, pageID string) (*domain.Merchant, error)
	// Upsert inserts the merchant or, when the page ID already exists, updates
	// its token hash, page name and last-active timestamp. Safe to call
	// concurrently for the same page ID.
	Upsert(ctx context.Context, merchant *domain.Merchant) (*domain.Merchant, error)
	Update(ctx context.Context, merchant *domain.Merchant) error
	// UpdateCatalog replaces the merchant's product catalog wholesale.
	UpdateCatalog(ctx context.Context, id string, catalog []domain.Product) error
	// IncrementMessageCount bumps the monthly counter by one as a single
	// atomic UPDATE. Never decrements.
	IncrementMessageCount(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Merchant, error)
	Delete(ctx context.Context, id string) error
}

//go:generate mockery --name Repository --output ../mocks
type Repository interface {
	Merchant() MerchantRepository
}
