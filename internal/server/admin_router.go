package server

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/kataras/iris/v12"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/auth"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/order"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/infra/blob"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/infra/mq"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/infra/redis"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/middleware"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/repository/mysql"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/service"
)

// 图片上传限制 5MB，只收常见图片格式
const maxUploadSize = 5 << 20

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台商城服务分离。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	blobStore, err := blob.NewLocalStore(&cfg.Blob)
	if err != nil {
		panic(err)
	}
	app.HandleDir(cfg.Blob.BaseURL, iris.Dir(cfg.Blob.Dir))

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	txManager := mysql.NewTxManager(db)

	notifier := service.NewMQNotifier(mqConn)
	otpStore := auth.NewOTPStore(redisClient, cfg.OTP.TTL, cfg.OTP.MaxAttempts)
	userSvc := service.NewUserService(userRepo, &cfg.JWT, otpStore, notifier)
	productSvc := service.NewProductService(productRepo, cfg.Catalog.FuzzyItemLookup)
	orderSvc := service.NewOrderService(txManager, orderRepo, productRepo, notifier, cfg.Order, cfg.Catalog)
	statsSvc := service.NewStatsService(db)

	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, tokenCacheTTL(&cfg.Auth))

	authBucket := middleware.NewTokenBucket(cfg.RateLimit.AuthCapacity, cfg.RateLimit.AuthRefill)

	api := app.Party("/api")

	// ---------- 管理员登录（密码 + 邮箱验证码两步） ----------

	api.Post("/login", middleware.RateLimit(authBucket), func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !readJSON(ctx, &req) {
			return
		}
		if err := userSvc.AdminLogin(ctx.Request().Context(), req.Email, req.Password); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "message": "验证码已发送至管理员邮箱"})
	})

	api.Post("/verify-otp", middleware.RateLimit(authBucket), func(ctx iris.Context) {
		var req struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		if !readJSON(ctx, &req) {
			return
		}
		u, token, err := userSvc.AdminVerifyOTP(ctx.Request().Context(), req.Email, req.Code)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "token": token, "user": u})
	})

	api.Post("/resend-otp", middleware.RateLimit(authBucket), func(ctx iris.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if !readJSON(ctx, &req) {
			return
		}
		if err := userSvc.AdminResendOTP(ctx.Request().Context(), req.Email); err != nil {
			fail(ctx, err)
			return
		}
		// 账号不存在也返回成功，避免探测管理员邮箱
		ctx.JSON(iris.Map{"success": true, "message": "若账号存在，验证码已重新发送"})
	})

	// 以下接口全部要求管理员令牌
	admin := api.Party("/", requireAuth(&cfg.JWT, tokenCache, auth.AudienceAdmin))

	// ---------- 商品管理 ----------

	// 商品列表（后台用：含已下架商品）
	admin.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.List(ctx.Request().Context(), product.ListFilter{
			Category: ctx.URLParam("category"),
			Keyword:  ctx.URLParam("q"),
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "products": list})
	})

	admin.Post("/products", func(ctx iris.Context) {
		var req service.ProductInput
		if !readJSON(ctx, &req) {
			return
		}
		p, err := productSvc.Create(ctx.Request().Context(), &req)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(iris.Map{"success": true, "product": p})
	})

	admin.Put("/products/{id:string}", func(ctx iris.Context) {
		var req service.ProductInput
		if !readJSON(ctx, &req) {
			return
		}
		p, err := productSvc.Update(ctx.Request().Context(), ctx.Params().GetString("id"), &req)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "product": p})
	})

	// 下架（软删除）：商品保留，前台查不到
	admin.Post("/products/{id:string}/deactivate", func(ctx iris.Context) {
		if err := productSvc.Deactivate(ctx.Request().Context(), ctx.Params().GetString("id")); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "message": "商品已下架"})
	})

	admin.Delete("/products/{id:string}", func(ctx iris.Context) {
		if err := productSvc.Delete(ctx.Request().Context(), ctx.Params().GetString("id")); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "message": "商品已删除"})
	})

	// ---------- 图片上传 ----------

	admin.Post("/uploads/image", func(ctx iris.Context) {
		ctx.SetMaxRequestBodySize(maxUploadSize)
		file, header, err := ctx.FormFile("image")
		if err != nil {
			fail(ctx, apperr.BadRequest(apperr.CodeValidation, "缺少上传文件"))
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedImageExt[ext] {
			fail(ctx, apperr.BadRequest(apperr.CodeValidation, "不支持的图片格式: %s", ext))
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
		if err != nil {
			fail(ctx, err)
			return
		}
		url, err := blobStore.Save(ctx.Request().Context(), data, ext)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "url": url})
	})

	admin.Delete("/uploads/image", func(ctx iris.Context) {
		var req struct {
			URL string `json:"url"`
		}
		if !readJSON(ctx, &req) {
			return
		}
		if err := blobStore.Delete(ctx.Request().Context(), req.URL); err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "message": "图片已删除"})
	})

	// ---------- 订单管理 ----------

	// 订单分页列表，支持按状态筛选
	admin.Get("/orders", func(ctx iris.Context) {
		filter := order.ListFilter{
			Status: ctx.URLParam("status"),
			Page:   ctx.URLParamIntDefault("page", 1),
			Limit:  ctx.URLParamIntDefault("limit", 20),
		}
		list, total, err := orderSvc.ListAll(ctx.Request().Context(), filter, actorFrom(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{
			"success": true,
			"orders":  list,
			"total":   total,
			"page":    filter.Page,
			"limit":   filter.Limit,
		})
	})

	admin.Get("/orders/{id:string}", func(ctx iris.Context) {
		o, err := orderSvc.GetOrder(ctx.Request().Context(), ctx.Params().GetString("id"), actorFrom(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "order": o})
	})

	// 状态流转：pending → confirmed → shipping → delivered；cancelled 走取消分支
	admin.Patch("/orders/{id:string}/status", func(ctx iris.Context) {
		var req struct {
			Status string `json:"status"`
			Reason string `json:"reason"`
		}
		if !readJSON(ctx, &req) {
			return
		}
		o, err := orderSvc.UpdateStatus(ctx.Request().Context(), ctx.Params().GetString("id"), req.Status, req.Reason, actorFrom(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "order": o})
	})

	// ---------- 仪表盘 ----------

	admin.Get("/stats", func(ctx iris.Context) {
		stats, err := statsSvc.Dashboard(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "stats": stats})
	})

	// 运行期计数器，排查问题用
	admin.Get("/monitor", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"success": true, "monitor": service.GetMonitor().Snapshot()})
	})
}
