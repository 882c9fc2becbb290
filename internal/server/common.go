package server

import (
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/auth"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/service"
)

// fail 统一错误响应：{"success": false, "message": ..., "code": ...}
func fail(ctx iris.Context, err error) {
	e := apperr.From(err)
	ctx.StopWithJSON(e.Status, iris.Map{
		"success": false,
		"message": e.Message,
		"code":    string(e.Code),
	})
}

// readJSON 解析请求体，失败时按入参错误返回 400
func readJSON(ctx iris.Context, dst interface{}) bool {
	if err := ctx.ReadJSON(dst); err != nil {
		fail(ctx, apperr.BadRequest(apperr.CodeValidation, "请求体格式不正确"))
		return false
	}
	return true
}

// bearerToken 取出请求里的令牌，兼容 "Bearer xxx" 与裸令牌两种写法
func bearerToken(ctx iris.Context) string {
	token := ctx.GetHeader("Authorization")
	if strings.HasPrefix(token, "Bearer ") {
		token = strings.TrimPrefix(token, "Bearer ")
	}
	return strings.TrimSpace(token)
}

// resolveClaims 先查 Redis 缓存，未命中再解析 JWT 并回填缓存
func resolveClaims(ctx iris.Context, cfg *config.JWTConfig, cache *auth.TokenCache, token, audience string) (*auth.Claims, error) {
	if cache != nil {
		if claims, ok, err := cache.Get(ctx.Request().Context(), token); err == nil && ok {
			if audience == "" || hasAud(claims, audience) {
				return claims, nil
			}
			return nil, auth.ErrWrongAudience
		} else if err != nil {
			zap.L().Warn("令牌缓存查询失败", zap.Error(err))
		}
	}
	var claims *auth.Claims
	var err error
	if audience == "" {
		claims, err = auth.ParseAnyToken(cfg, token)
	} else {
		claims, err = auth.ParseToken(cfg, token, audience)
	}
	if err != nil {
		return nil, err
	}
	if cache != nil {
		if err := cache.Set(ctx.Request().Context(), token, claims); err != nil {
			zap.L().Warn("令牌缓存写入失败", zap.Error(err))
		}
	}
	return claims, nil
}

func hasAud(c *auth.Claims, want string) bool {
	for _, a := range c.Audience {
		if a == want {
			return true
		}
	}
	return false
}

// requireAuth 登录态中间件。audience 区分前台用户与后台管理员令牌。
func requireAuth(cfg *config.JWTConfig, cache *auth.TokenCache, audience string) iris.Handler {
	return func(ctx iris.Context) {
		token := bearerToken(ctx)
		if token == "" {
			fail(ctx, apperr.Unauthenticated("请先登录"))
			return
		}
		claims, err := resolveClaims(ctx, cfg, cache, token, audience)
		if err != nil {
			fail(ctx, apperr.Unauthenticated("登录凭证无效或已过期"))
			return
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("user_name", claims.Name)
		ctx.Values().Set("role", claims.Role)
		ctx.Next()
	}
}

// optionalAuth 有令牌就解析身份，没有或无效则按游客继续
func optionalAuth(cfg *config.JWTConfig, cache *auth.TokenCache) iris.Handler {
	return func(ctx iris.Context) {
		token := bearerToken(ctx)
		if token != "" {
			if claims, err := resolveClaims(ctx, cfg, cache, token, auth.AudienceUser); err == nil {
				ctx.Values().Set("user_id", claims.UserID)
				ctx.Values().Set("user_name", claims.Name)
				ctx.Values().Set("role", claims.Role)
			}
		}
		ctx.Next()
	}
}

// actorFrom 从上下文取出请求方身份，游客为零值
func actorFrom(ctx iris.Context) service.Actor {
	return service.Actor{
		UserID: ctx.Values().GetString("user_id"),
		Role:   ctx.Values().GetString("role"),
	}
}

// tokenCacheTTL 配置换算，零值兜底 10 分钟
func tokenCacheTTL(cfg *config.AuthConfig) time.Duration {
	if cfg.TokenCacheTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(cfg.TokenCacheTTLSeconds) * time.Second
}
