package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/infra/mq"
)

// 通知消息类型
const (
	NotifyKindOTP         = "otp"
	NotifyKindOrderPlaced = "order_placed"
)

// NotifyMessage 投递到通知队列的消息，由 notify-worker 消费
type NotifyMessage struct {
	MessageID   string `json:"message_id"` // 幂等去重用
	Kind        string `json:"kind"`
	Destination string `json:"destination"` // 邮箱或手机号
	Code        string `json:"code,omitempty"`
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	TotalAmount int64  `json:"total_amount,omitempty"`
}

// Notifier 带外通知能力：投递验证码、订单通知
// 核心下单链路不等待投递结果，发送失败只记监控。
type Notifier interface {
	DeliverCode(ctx context.Context, destination, code string) error
	OrderPlaced(ctx context.Context, destination, orderID, orderNumber string, total int64) error
}

// MQNotifier 基于 RabbitMQ 的通知实现
type MQNotifier struct {
	conn *amqp.Connection
}

// NewMQNotifier 创建 MQ 通知器
func NewMQNotifier(conn *amqp.Connection) *MQNotifier {
	return &MQNotifier{conn: conn}
}

func (n *MQNotifier) publish(ctx context.Context, m *NotifyMessage) error {
	ch, err := n.conn.Channel()
	if err != nil {
		GetMonitor().RecordMQError()
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mq.NotifyQueue, true, false, false, false, nil); err != nil {
		GetMonitor().RecordMQError()
		return err
	}

	m.MessageID = uuid.NewString()
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}

	if err = ch.PublishWithContext(
		ctx,
		"",
		mq.NotifyQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   m.MessageID,
			Body:        body,
		},
	); err != nil {
		GetMonitor().RecordMQError()
		return err
	}
	return nil
}

// DeliverCode 投递一次性验证码
func (n *MQNotifier) DeliverCode(ctx context.Context, destination, code string) error {
	return n.publish(ctx, &NotifyMessage{
		Kind:        NotifyKindOTP,
		Destination: destination,
		Code:        code,
	})
}

// OrderPlaced 投递下单成功通知
func (n *MQNotifier) OrderPlaced(ctx context.Context, destination, orderID, orderNumber string, total int64) error {
	return n.publish(ctx, &NotifyMessage{
		Kind:        NotifyKindOrderPlaced,
		Destination: destination,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		TotalAmount: total,
	})
}
