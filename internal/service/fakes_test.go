package service

import (
	"context"
	"strings"
	"sync"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/order"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/user"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/repository"
)

// 内存仓储，行为对齐 mysql 实现：
// 名称查询只返回在售商品，条件扣减在锁内做比较再更新。

type memProductRepo struct {
	mu    sync.Mutex
	order []string // 保持插入顺序，SearchByName 取第一条
	items map[string]*product.Product

	// DecrementStock 前触发的钩子，用来模拟并发下被别人抢走库存
	beforeDecrement func(id string)
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{items: map[string]*product.Product{}}
}

func cloneProduct(p *product.Product) *product.Product {
	cp := *p
	if p.CatalogNo != nil {
		no := *p.CatalogNo
		cp.CatalogNo = &no
	}
	return &cp
}

func (r *memProductRepo) add(p *product.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, p.ID)
	r.items[p.ID] = cloneProduct(p)
}

func (r *memProductRepo) stockOf(id string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Stock
}

func (r *memProductRepo) soldOf(id string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].SoldCount
}

func (r *memProductRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *memProductRepo) GetByCatalogNo(ctx context.Context, no int64) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		p := r.items[id]
		if p.CatalogNo != nil && *p.CatalogNo == no {
			return cloneProduct(p), nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *memProductRepo) GetByName(ctx context.Context, name string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		p := r.items[id]
		if p.IsActive && p.Name == name {
			return cloneProduct(p), nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *memProductRepo) SearchByName(ctx context.Context, keyword string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kw := strings.ToLower(keyword)
	for _, id := range r.order {
		p := r.items[id]
		if p.IsActive && strings.Contains(strings.ToLower(p.Name), kw) {
			return cloneProduct(p), nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *memProductRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*product.Product
	for _, id := range r.order {
		p := r.items[id]
		if filter.OnlyActive && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (r *memProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.add(p)
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return product.ErrNotFound
	}
	r.items[p.ID] = cloneProduct(p)
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memProductRepo) DecrementStock(ctx context.Context, id string, qty int64) error {
	if r.beforeDecrement != nil {
		r.beforeDecrement(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.Stock < qty {
		return product.ErrInsufficientStock
	}
	p.Stock -= qty
	p.SoldCount += qty
	return nil
}

func (r *memProductRepo) RestoreStock(ctx context.Context, id string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Stock += qty
	p.SoldCount -= qty
	if p.SoldCount < 0 {
		p.SoldCount = 0
	}
	return nil
}

func (r *memProductRepo) snapshot() map[string]*product.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*product.Product, len(r.items))
	for id, p := range r.items {
		snap[id] = cloneProduct(p)
	}
	return snap
}

func (r *memProductRepo) restore(snap map[string]*product.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.items {
		if _, ok := snap[id]; !ok {
			delete(r.items, id)
		}
	}
	for id, p := range snap {
		r.items[id] = cloneProduct(p)
	}
}

type memOrderRepo struct {
	mu    sync.Mutex
	order []string
	items map[string]*order.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{items: map[string]*order.Order{}}
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = append([]order.Item(nil), o.Items...)
	return &cp
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *memOrderRepo) Create(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, o.ID)
	r.items[o.ID] = cloneOrder(o)
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *memOrderRepo) Update(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[o.ID]; !ok {
		return order.ErrNotFound
	}
	r.items[o.ID] = cloneOrder(o)
	return nil
}

func (r *memOrderRepo) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.Order
	for _, id := range r.order {
		if o := r.items[id]; o != nil && o.Buyer.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListByGuestPhone(ctx context.Context, phone string) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.Order
	for _, id := range r.order {
		o := r.items[id]
		if o != nil && o.Buyer.UserID == "" && o.Buyer.GuestPhone == phone {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *memOrderRepo) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*order.Order
	for _, id := range r.order {
		o := r.items[id]
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		all = append(all, cloneOrder(o))
	}
	total := int64(len(all))
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memOrderRepo) snapshot() map[string]*order.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*order.Order, len(r.items))
	for id, o := range r.items {
		snap[id] = cloneOrder(o)
	}
	return snap
}

func (r *memOrderRepo) restore(snap map[string]*order.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := snap[id]; ok {
			kept = append(kept, id)
		}
	}
	r.order = kept
	r.items = make(map[string]*order.Order, len(snap))
	for id, o := range snap {
		r.items[id] = cloneOrder(o)
	}
}

// memTxManager 串行执行事务，失败时整体回滚到事务前的快照
type memTxManager struct {
	mu       sync.Mutex
	products *memProductRepo
	orders   *memOrderRepo
}

func newMemTxManager(p *memProductRepo, o *memOrderRepo) *memTxManager {
	return &memTxManager{products: p, orders: o}
}

func (m *memTxManager) Transaction(ctx context.Context, fn func(r repository.Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pSnap := m.products.snapshot()
	oSnap := m.orders.snapshot()
	err := fn(repository.Repos{Products: m.products, Orders: m.orders})
	if err != nil {
		m.products.restore(pSnap)
		m.orders.restore(oSnap)
	}
	return err
}

type memUserRepo struct {
	mu    sync.Mutex
	items map[string]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{items: map[string]*user.User{}}
}

func cloneUser(u *user.User) *user.User {
	cp := *u
	if u.LockUntil != nil {
		t := *u.LockUntil
		cp.LockUntil = &t
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		cp.LastLogin = &t
	}
	return &cp
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Email != "" && u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *memUserRepo) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Phone != "" && u.Phone == phone {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if (u.Email != "" && v.Email == u.Email) || (u.Phone != "" && v.Phone == u.Phone) {
			return user.ErrDuplicate
		}
	}
	r.items[u.ID] = cloneUser(u)
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[u.ID]; !ok {
		return user.ErrNotFound
	}
	r.items[u.ID] = cloneUser(u)
	return nil
}

func (r *memUserRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.items {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// recordNotifier 记录投递调用，核心链路不关心投递结果
type recordNotifier struct {
	mu     sync.Mutex
	codes  []string
	orders []string
}

func (n *recordNotifier) DeliverCode(ctx context.Context, destination, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, destination+":"+code)
	return nil
}

func (n *recordNotifier) OrderPlaced(ctx context.Context, destination, orderID, orderNumber string, total int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, orderID)
	return nil
}
