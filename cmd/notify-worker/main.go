package main

import (
	"encoding/json"
	"fmt"
	"log"

	radix "github.com/mediocregopher/radix/v3"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/infra/mq"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/infra/redis"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/service"
)

const (
	redisDedupKey      = "notify:done:%s" // message_id
	dedupExpireSeconds = "86400"          // 去重标记保留 24 小时
)

func main() {
	cfg := config.DefaultConfig()

	mqConn := mq.Init(&cfg.RabbitMQ)
	redisClient := redis.Init(&cfg.Redis)

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mq.NotifyQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// 手动确认模式（auto-ack=false），投递失败的消息重新入队
	msgs, err := ch.Consume(mq.NotifyQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Println("notify worker started, waiting for messages...")

	for d := range msgs {
		var m service.NotifyMessage
		if err := json.Unmarshal(d.Body, &m); err != nil {
			log.Printf("invalid message: %v", err)
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}
		handleMessage(redisClient, &m, d)
	}
}

func handleMessage(redisClient radix.Client, m *service.NotifyMessage, d amqp.Delivery) {
	// 按 message_id 做幂等去重：SETNX 失败说明已经投递过
	if m.MessageID != "" {
		var set string
		key := fmt.Sprintf(redisDedupKey, m.MessageID)
		if err := redisClient.Do(radix.Cmd(&set, "SET", key, "1", "NX", "EX", dedupExpireSeconds)); err != nil {
			log.Printf("failed to check dedup mark: %v", err)
			service.GetMonitor().RecordDBError()
			_ = d.Nack(false, true)
			return
		}
		if set != "OK" {
			log.Printf("message %s already delivered, skip", m.MessageID)
			_ = d.Ack(false)
			return
		}
	}

	switch m.Kind {
	case service.NotifyKindOTP:
		// 对接邮件网关前先落日志，保证验证码链路可观测
		log.Printf("deliver otp code to %s", m.Destination)
	case service.NotifyKindOrderPlaced:
		log.Printf("deliver order notice to %s: order %s (%s), total %d",
			m.Destination, m.OrderNumber, m.OrderID, m.TotalAmount)
	default:
		log.Printf("unknown notify kind %q, drop", m.Kind)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}
