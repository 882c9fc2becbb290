package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/repository"
)

type txManager struct {
	db *gorm.DB
}

// NewTxManager 基于 gorm 事务实现 TxManager
func NewTxManager(db *gorm.DB) repository.TxManager {
	return &txManager{db: db}
}

func (m *txManager) Transaction(ctx context.Context, fn func(r repository.Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.Repos{
			Products: NewProductRepository(tx),
			Orders:   NewOrderRepository(tx),
		})
	})
}
