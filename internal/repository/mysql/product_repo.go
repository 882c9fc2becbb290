package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func translateProductErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return product.ErrNotFound
	}
	return err
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateProductErr(err)
	}
	return &p, nil
}

func (r *productRepo) GetByCatalogNo(ctx context.Context, no int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).Where("catalog_no = ?", no).First(&p).Error; err != nil {
		return nil, translateProductErr(err)
	}
	return &p, nil
}

// GetByName 精确名称匹配，只找在售商品
func (r *productRepo) GetByName(ctx context.Context, name string) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).
		Where("name = ? AND is_active = ?", name, true).
		First(&p).Error; err != nil {
		return nil, translateProductErr(err)
	}
	return &p, nil
}

// SearchByName 大小写不敏感的子串匹配，按存储顺序取第一条在售商品
func (r *productRepo) SearchByName(ctx context.Context, keyword string) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? AND is_active = ?", "%"+strings.ToLower(escapeLike(keyword))+"%", true).
		Order("created_at ASC").
		First(&p).Error; err != nil {
		return nil, translateProductErr(err)
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	query := r.db.WithContext(ctx).Model(&product.Product{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != "" && filter.Category != "all" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Keyword != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(escapeLike(filter.Keyword))+"%")
	}
	var list []*product.Product
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&product.Product{}).Error
}

// DecrementStock 条件扣减：UPDATE ... WHERE stock >= qty
// 未命中任何行说明并发下库存已不足，由调用方回滚整个事务。
func (r *productRepo) DecrementStock(ctx context.Context, id string, qty int64) error {
	res := r.db.WithContext(ctx).Model(&product.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"sold_count": gorm.Expr("sold_count + ?", qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

// RestoreStock 回补库存，销量扣回但不低于 0
func (r *productRepo) RestoreStock(ctx context.Context, id string, qty int64) error {
	res := r.db.WithContext(ctx).Model(&product.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"sold_count": gorm.Expr("GREATEST(sold_count - ?, 0)", qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrNotFound
	}
	return nil
}

// escapeLike 转义 LIKE 模式中的通配符，关键字按字面匹配
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
