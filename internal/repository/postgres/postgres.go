package postgres

import (
	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/repository"
)

type postgresRepository struct {
	merchantRepo repository.MerchantRepository
}

func NewPostgresRepository(dbConnections *config.DatabaseConnections) repository.Repository {
	return &postgresRepository{
		merchantRepo: NewMerchantRepository(dbConnections.Writer, dbConnections.Reader),
	}
}

func (r *postgresRepository) Merchant() repository.MerchantRepository {
	return r.merchantRepo
}
