package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/order"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/user"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/keygen"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/repository"
)

// 手机号校验（游客联系方式用）
var phonePattern = regexp.MustCompile(`^(0[35789])[0-9]{8}$`)

// Actor 请求方身份，由鉴权中间件填充；游客下单时为零值
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleAdmin
}

// OrderItemInput 客户端传来的订单行
// Reference 可能是对象键、目录编号或名称，Name 仅作兜底。
type OrderItemInput struct {
	Reference string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Size      string `json:"size"`
}

// UnmarshalJSON 兼容老前端：productId 可能是数字也可能是字符串
func (i *OrderItemInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Reference json.RawMessage `json:"productId"`
		Name      string          `json:"name"`
		Quantity  int64           `json:"quantity"`
		Size      string          `json:"size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Name = raw.Name
	i.Quantity = raw.Quantity
	i.Size = raw.Size
	i.Reference = ""
	if len(raw.Reference) > 0 {
		var s string
		if err := json.Unmarshal(raw.Reference, &s); err == nil {
			i.Reference = s
		} else {
			var n json.Number
			if err := json.Unmarshal(raw.Reference, &n); err == nil {
				i.Reference = n.String()
			}
		}
	}
	return nil
}

// GuestInput 游客联系方式
type GuestInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// PlaceOrderInput 下单入参
type PlaceOrderInput struct {
	Actor           Actor
	Guest           *GuestInput
	Items           []OrderItemInput
	ShippingAddress order.ShippingAddress
	PaymentMethod   string
	Note            string
	// ShippingFee 客户端可传运费，超出合法区间回退默认值；nil 时用默认值
	ShippingFee *int64
}

// OrderService 订单服务：下单、状态流转、取消及库存回补
type OrderService struct {
	tx       repository.TxManager
	orders   order.Repository
	products product.Repository
	notifier Notifier
	orderCfg config.OrderConfig
	fuzzy    bool
}

// NewOrderService 创建订单服务
func NewOrderService(
	tx repository.TxManager,
	orders order.Repository,
	products product.Repository,
	notifier Notifier,
	orderCfg config.OrderConfig,
	catalogCfg config.CatalogConfig,
) *OrderService {
	return &OrderService{
		tx:       tx,
		orders:   orders,
		products: products,
		notifier: notifier,
		orderCfg: orderCfg,
		fuzzy:    catalogCfg.FuzzyItemLookup,
	}
}

// validatePlaceInput 入参校验，全部通过后才会碰存储
func (s *OrderService) validatePlaceInput(in *PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return apperr.BadRequest(apperr.CodeEmptyCart, "订单至少要有一件商品")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return apperr.BadRequest(apperr.CodeValidation, "商品数量必须大于等于 1")
		}
	}

	addr := in.ShippingAddress
	if strings.TrimSpace(addr.FullName) == "" ||
		strings.TrimSpace(addr.Phone) == "" ||
		strings.TrimSpace(addr.Address) == "" {
		return apperr.BadRequest(apperr.CodeInvalidAddress, "收货人、电话和地址不能为空")
	}

	if !order.ValidPaymentMethod(in.PaymentMethod) {
		return apperr.BadRequest(apperr.CodeInvalidPaymentMethod, "不支持的支付方式: %s", in.PaymentMethod)
	}

	// 账号与游客身份二选一
	hasAccount := in.Actor.UserID != ""
	hasGuest := in.Guest != nil && (in.Guest.Name != "" || in.Guest.Phone != "")
	switch {
	case hasAccount && hasGuest:
		return apperr.BadRequest(apperr.CodeMissingBuyer, "账号订单不能再附带游客信息")
	case !hasAccount && !hasGuest:
		return apperr.BadRequest(apperr.CodeMissingBuyer, "缺少买家身份：请登录或填写游客联系方式")
	case hasGuest:
		if strings.TrimSpace(in.Guest.Name) == "" {
			return apperr.BadRequest(apperr.CodeMissingBuyer, "游客姓名不能为空")
		}
		if !phonePattern.MatchString(in.Guest.Phone) {
			return apperr.BadRequest(apperr.CodeMissingBuyer, "游客手机号格式不正确")
		}
	}
	return nil
}

// shippingFee 运费取值：客户端传入的值不可信，超界回退默认值
func (s *OrderService) shippingFee(in *PlaceOrderInput) int64 {
	if in.ShippingFee == nil {
		return s.orderCfg.DefaultShippingFee
	}
	fee := *in.ShippingFee
	if fee < 0 || fee > s.orderCfg.MaxShippingFee {
		return s.orderCfg.DefaultShippingFee
	}
	return fee
}

// PlaceOrder 下单。
// 一个事务内完成：逐件解析商品并校验库存（全部通过前不做任何写入），
// 创建订单快照，再对每件商品做条件扣减。任何一步失败整单回滚，
// 不会出现部分商品已扣库存的中间状态。
func (s *OrderService) PlaceOrder(ctx context.Context, in *PlaceOrderInput) (*order.Order, error) {
	GetMonitor().RecordOrderRequest()

	if err := s.validatePlaceInput(in); err != nil {
		GetMonitor().RecordOrderFailed()
		return nil, err
	}

	var placed *order.Order
	err := s.tx.Transaction(ctx, func(r repository.Repos) error {
		// 第一阶段：解析 + 校验，全部通过才继续
		type resolved struct {
			p   *product.Product
			qty int64
			sz  string
		}
		checks := make([]resolved, 0, len(in.Items))
		for _, item := range in.Items {
			ref := ParseItemRef(item.Reference, item.Name)
			p, err := ResolveItem(ctx, r.Products, ref, s.fuzzy)
			if err != nil {
				return err
			}
			if p.Stock < item.Quantity {
				return apperr.BadRequest(apperr.CodeInsufficientStock,
					"商品「%s」库存仅剩 %d，无法购买 %d 件", p.Name, p.Stock, item.Quantity)
			}
			checks = append(checks, resolved{p: p, qty: item.Quantity, sz: item.Size})
		}

		// 第二阶段：生成订单快照
		items := make([]order.Item, 0, len(checks))
		var subtotal int64
		for _, c := range checks {
			items = append(items, order.Item{
				ProductID: c.p.ID,
				CatalogNo: c.p.CatalogNo,
				Name:      c.p.Name,
				Price:     c.p.Price,
				Quantity:  c.qty,
				Size:      c.sz,
				Image:     c.p.Image,
			})
			subtotal += c.p.Price * c.qty
		}
		fee := s.shippingFee(in)

		o := &order.Order{
			ID:              keygen.NewKey(),
			Items:           items,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			Note:            in.Note,
			Subtotal:        subtotal,
			ShippingFee:     fee,
			TotalAmount:     subtotal + fee,
			Status:          order.StatusPending,
		}
		if in.Actor.UserID != "" {
			o.Buyer = order.Buyer{UserID: in.Actor.UserID}
		} else {
			o.Buyer = order.Buyer{
				GuestName:  in.Guest.Name,
				GuestPhone: in.Guest.Phone,
				GuestEmail: in.Guest.Email,
			}
		}
		if err := r.Orders.Create(ctx, o); err != nil {
			return err
		}

		// 第三阶段：条件扣减库存。
		// 前面的读校验只负责给出友好报错，真正的并发保护在这条
		// stock >= qty 的条件更新上，未命中即回滚整单。
		for _, c := range checks {
			if err := r.Products.DecrementStock(ctx, c.p.ID, c.qty); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					GetMonitor().RecordStockConflict()
					cur, gerr := r.Products.GetByID(ctx, c.p.ID)
					avail := int64(0)
					if gerr == nil {
						avail = cur.Stock
					}
					return apperr.BadRequest(apperr.CodeInsufficientStock,
						"商品「%s」库存仅剩 %d，无法购买 %d 件", c.p.Name, avail, c.qty)
				}
				return err
			}
		}

		placed = o
		return nil
	})
	if err != nil {
		GetMonitor().RecordOrderFailed()
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			GetMonitor().RecordDBError()
			zap.L().Error("place order failed", zap.Error(err))
			return nil, apperr.Storage(err)
		}
		return nil, err
	}

	GetMonitor().RecordOrderPlaced()
	zap.L().Info("order placed",
		zap.String("order_id", placed.ID),
		zap.Int64("total", placed.TotalAmount),
		zap.Int("items", len(placed.Items)))

	// 下单通知走带外队列，失败不影响订单
	if s.notifier != nil {
		dest := placed.ShippingAddress.Email
		if dest == "" {
			dest = placed.ShippingAddress.Phone
		}
		if err := s.notifier.OrderPlaced(ctx, dest, placed.ID, placed.Number(), placed.TotalAmount); err != nil {
			zap.L().Warn("order placed notify failed", zap.String("order_id", placed.ID), zap.Error(err))
		}
	}
	return placed, nil
}

// GetOrder 查单：本人或管理员可见
func (s *OrderService) GetOrder(ctx context.Context, id string, actor Actor) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeOrderNotFound, "找不到订单")
		}
		return nil, apperr.Storage(err)
	}
	if !actor.IsAdmin() && (actor.UserID == "" || o.Buyer.UserID != actor.UserID) {
		return nil, apperr.Forbidden("无权查看该订单")
	}
	return o, nil
}

// ListMine 查询当前用户的订单
func (s *OrderService) ListMine(ctx context.Context, actor Actor) ([]*order.Order, error) {
	if actor.UserID == "" {
		return nil, apperr.Unauthenticated("请先登录")
	}
	list, err := s.orders.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return list, nil
}

// ListGuest 游客订单只能按下单时登记的手机号查询
func (s *OrderService) ListGuest(ctx context.Context, phone string) ([]*order.Order, error) {
	if !phonePattern.MatchString(phone) {
		return nil, apperr.BadRequest(apperr.CodeValidation, "手机号格式不正确")
	}
	list, err := s.orders.ListByGuestPhone(ctx, phone)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return list, nil
}

// ListAll 后台分页查询全部订单
func (s *OrderService) ListAll(ctx context.Context, filter order.ListFilter, actor Actor) ([]*order.Order, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperr.Forbidden("仅管理员可查看全部订单")
	}
	if filter.Status != "" && !order.ValidStatus(filter.Status) {
		return nil, 0, apperr.BadRequest(apperr.CodeValidation, "非法状态: %s", filter.Status)
	}
	list, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return list, total, nil
}

// UpdateStatus 状态流转。confirmed/shipping/delivered 仅管理员可操作；
// cancelled 走取消路径（本人或管理员）。
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, next, reason string, actor Actor) (*order.Order, error) {
	if !order.ValidStatus(next) {
		return nil, apperr.BadRequest(apperr.CodeInvalidStatusTransition, "非法状态: %s", next)
	}
	if next == order.StatusCancelled {
		return s.Cancel(ctx, orderID, reason, actor)
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("仅管理员可变更订单状态")
	}

	var updated *order.Order
	err := s.tx.Transaction(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return apperr.NotFound(apperr.CodeOrderNotFound, "找不到订单")
			}
			return err
		}
		if !order.CanTransition(o.Status, next) {
			return apperr.BadRequest(apperr.CodeInvalidStatusTransition,
				"订单不能从 %s 变更为 %s", o.Status, next)
		}

		now := timeNow()
		o.Status = next
		switch next {
		case order.StatusConfirmed:
			o.ConfirmedAt = &now
		case order.StatusShipping:
			o.ShippedAt = &now
		case order.StatusDelivered:
			o.DeliveredAt = &now
			// 货到付款在签收时视为已支付
			if o.PaymentMethod == order.PaymentCOD {
				o.IsPaid = true
				o.PaidAt = &now
			}
		}
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			GetMonitor().RecordDBError()
			zap.L().Error("update order status failed", zap.String("order_id", orderID), zap.Error(err))
			return nil, apperr.Storage(err)
		}
		return nil, err
	}
	zap.L().Info("order status updated", zap.String("order_id", orderID), zap.String("status", next))
	return updated, nil
}

// Cancel 取消订单并回补库存。
// 只有 pending/confirmed 可以取消；已取消订单再次取消会被状态机拒绝，
// 这同时保证了库存回补最多发生一次。
func (s *OrderService) Cancel(ctx context.Context, orderID, reason string, actor Actor) (*order.Order, error) {
	var cancelled *order.Order
	err := s.tx.Transaction(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return apperr.NotFound(apperr.CodeOrderNotFound, "找不到订单")
			}
			return err
		}
		if !actor.IsAdmin() && (actor.UserID == "" || o.Buyer.UserID != actor.UserID) {
			return apperr.Forbidden("无权取消该订单")
		}
		if o.Status != order.StatusPending && o.Status != order.StatusConfirmed {
			return apperr.BadRequest(apperr.CodeOrderNotCancellable,
				"订单当前状态 %s 不可取消", o.Status)
		}

		now := timeNow()
		o.Status = order.StatusCancelled
		o.CancelledAt = &now
		o.CancelReason = reason
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}

		// 回补库存：逐行尽力而为。商品可能已被删除或改名，
		// 找不到就记日志跳过，不能因此让取消失败。
		for _, item := range o.Items {
			pid, ok := s.relocateProduct(ctx, r.Products, item)
			if !ok {
				zap.L().Warn("restore stock skipped, product gone",
					zap.String("order_id", o.ID),
					zap.String("product_id", item.ProductID),
					zap.String("name", item.Name))
				continue
			}
			if err := r.Products.RestoreStock(ctx, pid, item.Quantity); err != nil {
				zap.L().Warn("restore stock failed",
					zap.String("order_id", o.ID),
					zap.String("product_id", pid),
					zap.Error(err))
			}
		}

		cancelled = o
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			GetMonitor().RecordDBError()
			zap.L().Error("cancel order failed", zap.String("order_id", orderID), zap.Error(err))
			return nil, apperr.Storage(err)
		}
		return nil, err
	}

	GetMonitor().RecordCancellation()
	zap.L().Info("order cancelled", zap.String("order_id", orderID), zap.String("reason", reason))
	return cancelled, nil
}

// relocateProduct 取消时按快照重新定位商品：对象键 -> 目录编号 -> 精确名称。
// 回补不要求商品在售，下架商品同样要把库存补回去。
func (s *OrderService) relocateProduct(ctx context.Context, repo product.Repository, item order.Item) (string, bool) {
	if p, err := repo.GetByID(ctx, item.ProductID); err == nil {
		return p.ID, true
	}
	if item.CatalogNo != nil {
		if p, err := repo.GetByCatalogNo(ctx, *item.CatalogNo); err == nil {
			return p.ID, true
		}
	}
	if p, err := repo.GetByName(ctx, item.Name); err == nil {
		return p.ID, true
	}
	return "", false
}
