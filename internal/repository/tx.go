package repository

import (
	"context"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/order"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
)

// Repos 一次事务内可用的仓储集合
type Repos struct {
	Products product.Repository
	Orders   order.Repository
}

// TxManager 事务边界：fn 内的所有写入要么全部提交要么全部回滚
// 下单的"校验全部通过后才落库存"约束依赖该原子区间。
type TxManager interface {
	Transaction(ctx context.Context, fn func(r Repos) error) error
}
