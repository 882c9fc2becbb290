package order

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound 订单不存在
var ErrNotFound = errors.New("order not found")

// 订单状态机：
//
//	pending   -> confirmed | cancelled
//	confirmed -> shipping  | cancelled
//	shipping  -> delivered
//	delivered / cancelled 为终态
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipping  = "shipping"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ValidStatus 判断状态值是否合法
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition 判断状态迁移是否在状态机表内
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// 支付方式枚举
const (
	PaymentCOD     = "COD"
	PaymentBank    = "BANK"
	PaymentCard    = "CARD"
	PaymentMomo    = "Momo"
	PaymentZaloPay = "ZaloPay"
)

// ValidPaymentMethod 判断支付方式是否合法
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCOD, PaymentBank, PaymentCard, PaymentMomo, PaymentZaloPay:
		return true
	}
	return false
}

// Item 订单行：下单时的商品快照，之后商品改价/改名不影响已下单内容
type Item struct {
	ID        int64  `gorm:"primaryKey" json:"-"`
	OrderID   string `gorm:"size:24;index;not null" json:"-"`
	ProductID string `gorm:"size:24;not null" json:"productId"`
	CatalogNo *int64 `gorm:"" json:"catalogNo,omitempty"`
	Name      string `gorm:"size:128;not null" json:"name"`
	Price     int64  `gorm:"not null" json:"price"` // 下单时单价，分
	Quantity  int64  `gorm:"not null" json:"quantity"`
	Size      string `gorm:"size:16" json:"size,omitempty"`
	Image     string `gorm:"size:512" json:"image"`
}

// ShippingAddress 收货地址，内嵌到订单
type ShippingAddress struct {
	FullName string `gorm:"size:100" json:"fullName"`
	Phone    string `gorm:"size:20" json:"phone"`
	Email    string `gorm:"size:128" json:"email,omitempty"`
	Address  string `gorm:"size:255" json:"address"`
	Ward     string `gorm:"size:64" json:"ward"`
	District string `gorm:"size:64" json:"district"`
	City     string `gorm:"size:64" json:"city"`
}

// Buyer 买家标识：注册账号或游客二选一
// UserID 非空时为账号订单，否则游客字段必须齐全。
type Buyer struct {
	UserID     string `gorm:"size:24;index" json:"userId,omitempty"`
	GuestName  string `gorm:"size:100" json:"guestName,omitempty"`
	GuestPhone string `gorm:"size:20;index" json:"guestPhone,omitempty"`
	GuestEmail string `gorm:"size:128" json:"guestEmail,omitempty"`
}

// IsGuest 是否游客订单
func (b Buyer) IsGuest() bool {
	return b.UserID == ""
}

// Order 订单模型
type Order struct {
	ID              string          `gorm:"primaryKey;size:24" json:"id"`
	Buyer           Buyer           `gorm:"embedded" json:"buyer"`
	Items           []Item          `gorm:"foreignKey:OrderID;references:ID" json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	PaymentMethod   string          `gorm:"size:16;not null" json:"paymentMethod"`
	Note            string          `gorm:"size:512" json:"note,omitempty"`
	Subtotal        int64           `gorm:"not null" json:"subtotal"`
	ShippingFee     int64           `gorm:"not null" json:"shippingFee"`
	TotalAmount     int64           `gorm:"not null" json:"totalAmount"`
	Status          string          `gorm:"size:16;index;not null" json:"status"`
	CancelReason    string          `gorm:"size:255" json:"cancelReason,omitempty"`
	IsPaid          bool            `gorm:"default:false" json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	ConfirmedAt     *time.Time      `json:"confirmedAt,omitempty"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Number 对外展示的短订单号：取对象键末 8 位
func (o *Order) Number() string {
	if len(o.ID) < 8 {
		return o.ID
	}
	return o.ID[len(o.ID)-8:]
}

// ListFilter 后台订单列表查询条件
type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

// Repository 订单仓储接口
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListByGuestPhone(ctx context.Context, phone string) ([]*Order, error)
	// List 分页查询，返回列表和总数
	List(ctx context.Context, filter ListFilter) ([]*Order, int64, error)
}
