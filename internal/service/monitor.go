package service

import (
	"sync"
	"time"
)

// Monitor 进程内计数器，后台 /api/monitor 直接读取
type Monitor struct {
	mu sync.RWMutex

	// 订单链路
	OrderRequests  int64
	OrdersPlaced   int64
	OrdersFailed   int64
	StockConflicts int64
	Cancellations  int64

	// 基础设施错误
	DBErrors int64
	MQErrors int64

	LastOrderTime time.Time
	LastDBError   time.Time
	LastMQError   time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordOrderRequest 记录一次下单请求
func (m *Monitor) RecordOrderRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderRequests++
	m.LastOrderTime = time.Now()
}

// RecordOrderPlaced 记录下单成功
func (m *Monitor) RecordOrderPlaced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersPlaced++
}

// RecordOrderFailed 记录下单失败
func (m *Monitor) RecordOrderFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersFailed++
}

// RecordStockConflict 记录条件扣减未命中（并发抢库存）
func (m *Monitor) RecordStockConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockConflicts++
}

// RecordCancellation 记录订单取消
func (m *Monitor) RecordCancellation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cancellations++
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordMQError 记录 MQ 错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// Snapshot 返回计数快照
func (m *Monitor) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"order_requests":  m.OrderRequests,
		"orders_placed":   m.OrdersPlaced,
		"orders_failed":   m.OrdersFailed,
		"stock_conflicts": m.StockConflicts,
		"cancellations":   m.Cancellations,
		"db_errors":       m.DBErrors,
		"mq_errors":       m.MQErrors,
		"last_order_time": m.LastOrderTime,
		"last_db_error":   m.LastDBError,
		"last_mq_error":   m.LastMQError,
	}
}
