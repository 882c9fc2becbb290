package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/order"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/user"
)

// StatsService 后台报表，纯读侧聚合
type StatsService struct {
	db *gorm.DB
}

// NewStatsService 创建报表服务
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// MonthlyRevenue 某月的成交额与单量
type MonthlyRevenue struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	Revenue int64 `json:"revenue"`
	Count   int64 `json:"count"`
}

// TopProduct 销量排行条目
type TopProduct struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SoldCount int64  `json:"soldCount"`
}

// Stats 仪表盘数据
type Stats struct {
	TotalProducts   int64            `json:"totalProducts"`
	TotalOrders     int64            `json:"totalOrders"`
	TotalCustomers  int64            `json:"totalCustomers"`
	TotalRevenue    int64            `json:"totalRevenue"`
	PendingOrders   int64            `json:"pendingOrders"`
	ConfirmedOrders int64            `json:"confirmedOrders"`
	ShippingOrders  int64            `json:"shippingOrders"`
	DeliveredOrders int64            `json:"deliveredOrders"`
	CancelledOrders int64            `json:"cancelledOrders"`
	MonthlyRevenue  []MonthlyRevenue `json:"monthlyRevenue"`
	TopProducts     []TopProduct     `json:"topProducts"`
}

// Dashboard 汇总仪表盘数据；营收只统计已送达订单
func (s *StatsService) Dashboard(ctx context.Context) (*Stats, error) {
	out := &Stats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&product.Product{}).Where("is_active = ?", true).
		Count(&out.TotalProducts).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	if err := db.Model(&user.User{}).Where("role = ?", user.RoleUser).
		Count(&out.TotalCustomers).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	if err := db.Model(&order.Order{}).Count(&out.TotalOrders).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	statusCounts := []struct {
		Status string
		N      int64
	}{}
	if err := db.Model(&order.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	for _, sc := range statusCounts {
		switch sc.Status {
		case order.StatusPending:
			out.PendingOrders = sc.N
		case order.StatusConfirmed:
			out.ConfirmedOrders = sc.N
		case order.StatusShipping:
			out.ShippingOrders = sc.N
		case order.StatusDelivered:
			out.DeliveredOrders = sc.N
		case order.StatusCancelled:
			out.CancelledOrders = sc.N
		}
	}

	if err := db.Model(&order.Order{}).
		Where("status = ?", order.StatusDelivered).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&out.TotalRevenue).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	// 近 12 个月营收
	since := time.Now().AddDate(-1, 0, 0)
	if err := db.Model(&order.Order{}).
		Where("status = ? AND created_at >= ?", order.StatusDelivered, since).
		Select("YEAR(created_at) AS year, MONTH(created_at) AS month, SUM(total_amount) AS revenue, COUNT(*) AS count").
		Group("YEAR(created_at), MONTH(created_at)").
		Order("year, month").
		Scan(&out.MonthlyRevenue).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	if err := db.Model(&product.Product{}).
		Select("id, name, sold_count").
		Order("sold_count DESC").
		Limit(10).
		Scan(&out.TopProducts).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	return out, nil
}
