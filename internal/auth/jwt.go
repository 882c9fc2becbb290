package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
)

// token 受众：普通用户与管理员的 token 互不通用
const (
	AudienceUser  = "user"
	AudienceAdmin = "admin"
)

// ErrWrongAudience token 受众不匹配（如拿用户 token 访问后台）
var ErrWrongAudience = errors.New("token audience mismatch")

type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken 签发 JWT，audience 决定 token 归属的命名空间
func GenerateToken(cfg *config.JWTConfig, userID, name, role, audience string) (string, error) {
	now := time.Now()
	ttl := cfg.TTL
	if audience == AudienceAdmin {
		ttl = cfg.AdminTTL
	}
	if ttl == 0 {
		ttl = 2 * time.Hour
	}
	claims := Claims{
		UserID: userID,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken 解析并校验 JWT，受众不符时拒绝
func ParseToken(cfg *config.JWTConfig, tokenStr, wantAudience string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if !hasAudience(claims, wantAudience) {
		return nil, ErrWrongAudience
	}
	return claims, nil
}

// ParseAnyToken 只读场景（如查单）同时接受两种受众
func ParseAnyToken(cfg *config.JWTConfig, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func hasAudience(c *Claims, want string) bool {
	for _, aud := range c.Audience {
		if aud == want {
			return true
		}
	}
	return false
}
