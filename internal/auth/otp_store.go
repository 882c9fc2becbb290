package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

var (
	// ErrOTPNotFound 验证码不存在或已过期
	ErrOTPNotFound = errors.New("otp not found or expired")
	// ErrOTPMismatch 验证码不匹配
	ErrOTPMismatch = errors.New("otp mismatch")
	// ErrOTPTooManyAttempts 校验次数超限
	ErrOTPTooManyAttempts = errors.New("otp too many attempts")
)

// OTPStore 一次性验证码存储。
// 验证码放在 Redis 并靠 TTL 过期，而不是进程内 map，
// 多实例部署时任意节点都能校验，测试时也可以注入假的 redis client。
type OTPStore struct {
	redis       radix.Client
	ttl         time.Duration
	maxAttempts int
}

// NewOTPStore 创建验证码存储
func NewOTPStore(redis radix.Client, ttl time.Duration, maxAttempts int) *OTPStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &OTPStore{redis: redis, ttl: ttl, maxAttempts: maxAttempts}
}

func otpKey(destination string) string {
	return "auth:otp:" + destination
}

func otpAttemptsKey(destination string) string {
	return "auth:otp:attempts:" + destination
}

// Generate 为目标生成 6 位数字验证码并写入存储，覆盖旧码
func (s *OTPStore) Generate(ctx context.Context, destination string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	seconds := int64(s.ttl / time.Second)
	if err := s.redis.Do(radix.FlatCmd(nil, "SETEX", otpKey(destination), seconds, code)); err != nil {
		return "", err
	}
	// 重置校验计数，与验证码同寿命
	if err := s.redis.Do(radix.FlatCmd(nil, "SETEX", otpAttemptsKey(destination), seconds, 0)); err != nil {
		return "", err
	}
	return code, nil
}

// Verify 校验并消费验证码：成功后立即删除，单次有效
func (s *OTPStore) Verify(ctx context.Context, destination, code string) error {
	var attempts int
	if err := s.redis.Do(radix.Cmd(&attempts, "INCR", otpAttemptsKey(destination))); err != nil {
		return err
	}
	if attempts > s.maxAttempts {
		// 次数用尽时销毁验证码，只能重新发送
		_ = s.redis.Do(radix.Cmd(nil, "DEL", otpKey(destination)))
		return ErrOTPTooManyAttempts
	}

	var stored string
	if err := s.redis.Do(radix.Cmd(&stored, "GET", otpKey(destination))); err != nil {
		return err
	}
	if stored == "" {
		return ErrOTPNotFound
	}
	if stored != code {
		return ErrOTPMismatch
	}

	_ = s.redis.Do(radix.Cmd(nil, "DEL", otpKey(destination)))
	_ = s.redis.Do(radix.Cmd(nil, "DEL", otpAttemptsKey(destination)))
	return nil
}
