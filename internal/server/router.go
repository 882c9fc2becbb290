package server

import (
	"github.com/kataras/iris/v12"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/auth"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/order"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/infra/mq"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/infra/redis"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/middleware"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/repository/mysql"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/service"
)

// RegisterRoutes 注册前台商城的 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 商品图片静态托管
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

	// 令牌缓存：一致性哈希环决定缓存键落在哪个节点前缀
	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, tokenCacheTTL(&cfg.Auth))

	// 限流：登录注册与下单分开的令牌桶
	authBucket := middleware.NewTokenBucket(cfg.RateLimit.AuthCapacity, cfg.RateLimit.AuthRefill)
	orderBucket := middleware.NewTokenBucket(cfg.RateLimit.OrderCapacity, cfg.RateLimit.OrderRefill)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"success": true, "message": "ok"})
	})

	// ---------- 用户 ----------

	users := api.Party("/users")

	users.Post("/register", middleware.RateLimit(authBucket), func(ctx iris.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Phone    string `json:"phone"`
			Password string `json:"password"`
		}
		if !readJSON(ctx, &req) {
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), &service.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Password: req.Password,
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "message": "注册成功", "user": u})
	})

	users.Post("/login", middleware.RateLimit(authBucket), func(ctx iris.Context) {
		var req struct {
			// Identifier 邮箱或手机号
			Identifier string `json:"identifier"`
			Password   string `json:"password"`
		}
		if !readJSON(ctx, &req) {
			return
		}
		u, token, err := userSvc.Login(ctx.Request().Context(), req.Identifier, req.Password)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "token": token, "user": u})
	})

	users.Get("/me", requireAuth(&cfg.JWT, tokenCache, auth.AudienceUser), func(ctx iris.Context) {
		u, err := userSvc.Get(ctx.Request().Context(), ctx.Values().GetString("user_id"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "user": u})
	})

	// ---------- 商品 ----------

	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.List(ctx.Request().Context(), product.ListFilter{
			Category:   ctx.URLParam("category"),
			Keyword:    ctx.URLParam("q"),
			OnlyActive: true,
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "products": list})
	})

	// 商品详情：路径参数可以是对象键、目录编号或商品名称
	api.Get("/products/{ref:string}", func(ctx iris.Context) {
		p, err := productSvc.Get(ctx.Request().Context(), ctx.Params().GetString("ref"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "product": p})
	})

	// 同分类关联商品
	api.Get("/products/{ref:string}/related", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 0)
		list, err := productSvc.Related(ctx.Request().Context(), ctx.Params().GetString("ref"), limit)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "products": list})
	})

	// ---------- 订单 ----------

	orders := api.Party("/orders")

	// 下单：登录用户带令牌，游客填 guest 联系方式
	orders.Post("/", middleware.RateLimit(orderBucket), optionalAuth(&cfg.JWT, tokenCache), func(ctx iris.Context) {
		var req struct {
			Items           []service.OrderItemInput `json:"items"`
			Guest           *service.GuestInput      `json:"guest"`
			ShippingAddress order.ShippingAddress    `json:"shippingAddress"`
			PaymentMethod   string                   `json:"paymentMethod"`
			Note            string                   `json:"note"`
			ShippingFee     *int64                   `json:"shippingFee"`
		}
		if !readJSON(ctx, &req) {
			return
		}
		o, err := orderSvc.PlaceOrder(ctx.Request().Context(), &service.PlaceOrderInput{
			Actor:           actorFrom(ctx),
			Guest:           req.Guest,
			Items:           req.Items,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Note:            req.Note,
			ShippingFee:     req.ShippingFee,
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(iris.Map{
			"success":     true,
			"message":     "下单成功",
			"order":       o,
			"orderNumber": o.Number(),
		})
	})

	// 我的订单
	orders.Get("/my-orders", requireAuth(&cfg.JWT, tokenCache, auth.AudienceUser), func(ctx iris.Context) {
		list, err := orderSvc.ListMine(ctx.Request().Context(), actorFrom(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "orders": list})
	})

	// 游客按手机号查单
	orders.Get("/guest", func(ctx iris.Context) {
		list, err := orderSvc.ListGuest(ctx.Request().Context(), ctx.URLParam("phone"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "orders": list})
	})

	// 订单详情：本人或管理员可查
	orders.Get("/{id:string}", requireAuth(&cfg.JWT, tokenCache, ""), func(ctx iris.Context) {
		o, err := orderSvc.GetOrder(ctx.Request().Context(), ctx.Params().GetString("id"), actorFrom(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "order": o})
	})

	// 取消订单：待处理/已确认可取消，取消后回补库存
	orders.Post("/{id:string}/cancel", requireAuth(&cfg.JWT, tokenCache, ""), func(ctx iris.Context) {
		var req struct {
			Reason string `json:"reason"`
		}
		_ = ctx.ReadJSON(&req)
		o, err := orderSvc.Cancel(ctx.Request().Context(), ctx.Params().GetString("id"), req.Reason, actorFrom(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"success": true, "message": "订单已取消", "order": o})
	})
}
