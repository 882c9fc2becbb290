package mq

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
)

// NotifyQueue 下单/OTP 通知队列，服务端发布、notify-worker 消费
const NotifyQueue = "notify_queue"

var (
	conn *amqp.Connection
	once sync.Once
)

// Init 建立 RabbitMQ 连接，进程内只建一次。
// 通道不在这里开：amqp 的 Channel 不是并发安全的，由各使用方自己开。
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			zap.S().Fatalw("rabbitmq 连接失败", "err", err)
		}
		conn = c
	})
	return conn
}

// Conn 获取 MQ 连接
func Conn() *amqp.Connection {
	return conn
}
