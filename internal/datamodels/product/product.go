package product

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound 商品不存在
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock 条件扣减未命中，库存不足
	ErrInsufficientStock = errors.New("insufficient stock")
)

// 商品分类枚举，取值沿用前端既有的越南语 slug
const (
	CategoryClothing   = "quanao"   // 服装
	CategoryShoes      = "giaydep"  // 鞋类
	CategoryCosmetics  = "mypham"   // 美妆
	CategoryFood       = "thucpham" // 食品
	CategoryConsumable = "tieudung" // 日用消耗品
	CategoryHousehold  = "giadung"  // 家居
)

// ValidCategory 判断分类是否合法
func ValidCategory(c string) bool {
	switch c {
	case CategoryClothing, CategoryShoes, CategoryCosmetics,
		CategoryFood, CategoryConsumable, CategoryHousehold:
		return true
	}
	return false
}

// Product 商品模型
// ID 为系统生成的 24 位十六进制对象键；CatalogNo 是历史前端使用的数字编号，
// 两者都可以唯一定位同一条记录。
type Product struct {
	ID          string    `gorm:"primaryKey;size:24" json:"id"`
	CatalogNo   *int64    `gorm:"uniqueIndex" json:"catalogNo,omitempty"`
	Name        string    `gorm:"size:128;not null;index" json:"name"`
	Description string    `gorm:"size:1024" json:"description"`
	Category    string    `gorm:"size:32;index" json:"category"`
	Price       int64     `gorm:"not null" json:"price"` // 分
	Stock       int64     `gorm:"not null" json:"stock"`
	SoldCount   int64     `gorm:"not null;default:0" json:"soldCount"`
	Image       string    `gorm:"size:512" json:"image"`
	Sizes       string    `gorm:"size:255" json:"sizes"` // 逗号分隔，如 S,M,L
	Rating      float64   `gorm:"default:0" json:"rating"`
	Reviews     int64     `gorm:"default:0" json:"reviews"`
	IsActive    bool      `gorm:"index;default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListFilter 商品列表查询条件
type ListFilter struct {
	Category   string
	Keyword    string
	OnlyActive bool
}

// Repository 商品仓储接口
// DecrementStock 必须是条件更新：仅当剩余库存足够时才扣减，避免读-比较-写竞态。
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByCatalogNo(ctx context.Context, no int64) (*Product, error)
	GetByName(ctx context.Context, name string) (*Product, error)
	// SearchByName 按名称做大小写不敏感的子串匹配，按存储顺序返回第一条
	SearchByName(ctx context.Context, keyword string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	// DecrementStock 原子扣减库存并累计销量；库存不足时返回 ErrInsufficientStock
	DecrementStock(ctx context.Context, id string, qty int64) error
	// RestoreStock 取消订单时回补库存、扣回销量（销量下限为 0）
	RestoreStock(ctx context.Context, id string, qty int64) error
}
