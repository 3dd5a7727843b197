package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
)

type MerchantRepository struct {
	writerDB *gorm.DB
	readerDB *gorm.DB
}

func NewMerchantRepository(writerDB, readerDB *gorm.DB) *MerchantRepository {
	return &MerchantRepository{
		writerDB: writerDB,
		readerDB: readerDB,
	}
}

func (r *MerchantRepository) Create(ctx context.Context, merchant *domain.Merchant) (*domain.Merchant, error) {
	if err := r.writerDB.WithContext(ctx).Create(merchant).Error; err != nil {
		return nil, err
	}
	return merchant, nil
}

func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	var merchant domain.Merchant
	if err := r.readerDB.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *MerchantRepository) GetByPageID(ctx context.Context, pageID string) (*domain.Merchant, error) {
	var merchant domain.Merchant
	if err := r.readerDB.WithContext(ctx).First(&merchant, "instagram_page_id = ?", pageID).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// Upsert relies on the unique index on instagram_page_id: a concurrent create
// for the same page becomes an update instead of a duplicate-key error, so
// two racing OAuth callbacks or webhook-triggered enrollments yield exactly
// one row.
func (r *MerchantRepository) Upsert(ctx context.Context, merchant *domain.Merchant) (*domain.Merchant, error) {
	err := r.writerDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "instagram_page_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"access_token_hash": merchant.AccessTokenHash,
			"page_name":         merchant.PageName,
			"last_active_at":    time.Now().UTC(),
			"updated_at":        time.Now().UTC(),
		}),
	}).Create(merchant).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller sees the stored row, not the insert candidate.
	var stored domain.Merchant
	if err := r.writerDB.WithContext(ctx).First(&stored, "instagram_page_id = ?", merchant.InstagramPageID).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *MerchantRepository) Update(ctx context.Context, merchant *domain.Merchant) error {
	return r.writerDB.WithContext(ctx).Save(merchant).Error
}

func (r *MerchantRepository) UpdateCatalog(ctx context.Context, id string, catalog []domain.Product) error {
	// Struct-based update so the jsonb serializer applies to the catalog.
	return r.writerDB.WithContext(ctx).Model(&domain.Merchant{ID: id}).
		Select("product_catalog", "updated_at").
		Updates(&domain.Merchant{ProductCatalog: catalog, UpdatedAt: time.Now().UTC()}).Error
}

// IncrementMessageCount is a single UPDATE with a column expression so
// concurrent events for the same merchant never lose an increment to a
// read-modify-write race.
func (r *MerchantRepository) IncrementMessageCount(ctx context.Context, id string) error {
	return r.writerDB.WithContext(ctx).Model(&domain.Merchant{}).
		Where("id = ?", id).
		UpdateColumn("monthly_message_count", gorm.Expr("monthly_message_count + ?", 1)).Error
}

func (r *MerchantRepository) List(ctx context.Context) ([]domain.Merchant, error) {
	var merchants []domain.Merchant
	if err := r.readerDB.WithContext(ctx).Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}

func (r *MerchantRepository) Delete(ctx context.Context, id string) error {
	return r.writerDB.WithContext(ctx).Delete(&domain.Merchant{}, "id = ?", id).Error
}
