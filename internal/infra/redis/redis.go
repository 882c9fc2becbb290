package redis

import (
	"sync"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
)

// 池子同时服务 token 缓存、OTP 存取与通知去重
const defaultPoolSize = 10

var (
	client radix.Client
	once   sync.Once
)

// Init 初始化 Redis 连接池，进程内只建一次
func Init(cfg *config.RedisConfig) radix.Client {
	once.Do(func() {
		size := cfg.PoolSize
		if size <= 0 {
			size = defaultPoolSize
		}
		pool, err := radix.NewPool("tcp", cfg.Addr, size)
		if err != nil {
			zap.S().Fatalw("redis 连接失败", "addr", cfg.Addr, "err", err)
		}
		client = pool
	})
	return client
}

// Client 获取 Redis 客户端
func Client() radix.Client {
	return client
}
