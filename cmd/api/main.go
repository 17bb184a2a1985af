package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiebiao/ordersaga/internal/application/catalog"
	apporder "github.com/xiebiao/ordersaga/internal/application/order"
	appsaga "github.com/xiebiao/ordersaga/internal/application/saga"
	"github.com/xiebiao/ordersaga/internal/domain/inventory"
	"github.com/xiebiao/ordersaga/internal/domain/payment"
	"github.com/xiebiao/ordersaga/internal/domain/promo"
	"github.com/xiebiao/ordersaga/internal/infrastructure/config"
	"github.com/xiebiao/ordersaga/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/ordersaga/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/ordersaga/internal/interface/http/handler"
	"github.com/xiebiao/ordersaga/pkg/circuitbreaker"
	"github.com/xiebiao/ordersaga/pkg/mq"
	"github.com/xiebiao/ordersaga/pkg/response"
)

// main 主程序入口
// 说明:手动依赖注入(wire.go是Wire版本的组装蓝图)
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())

	// 2. 初始化数据库连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	// 3. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 4. 初始化RabbitMQ(可选能力,未启用时事件发布跳过)
	// 发布链路带熔断保护:Broker持续故障时快速失败,不拖慢下单主流程
	var events apporder.EventPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("初始化RabbitMQ失败: %v", err)
		}
		defer publisher.Close()

		breaker := circuitbreaker.New("rabbitmq-publish", 5, 30*time.Second)
		events = mq.NewGuardedPublisher(publisher, breaker)
		fmt.Println("✓ RabbitMQ连接成功")
	}

	// 5. 依赖注入(手动组装)
	// 依赖链: Repository ← Service ← Orchestrator/UseCase ← Handler

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	itemRepo := mysql.NewItemRepository(db)
	reservationRepo := mysql.NewReservationRepository(db)
	promoRepo := mysql.NewPromoRepository(db)
	applicationRepo := mysql.NewApplicationRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	sagaStepRepo := mysql.NewSagaStepRepository(db)
	txManager := mysql.NewTxManager(db)
	orderCache := redis.NewOrderCache(redisClient, cfg.Redis.ViewTTL)

	// 领域层
	promoService := promo.NewService(promoRepo, applicationRepo)
	inventoryService := inventory.NewService(itemRepo, reservationRepo)
	paymentService := payment.NewService(userRepo, paymentRepo)

	// 应用层
	orchestrator := appsaga.NewOrchestrator(
		orderRepo, sagaStepRepo, txManager,
		promoService, inventoryService, paymentService,
	)

	createOrderUseCase := apporder.NewCreateOrderUseCase(
		userRepo, itemRepo, promoRepo, promoService,
		orderRepo, sagaStepRepo, orchestrator,
		orderCache, events,
	)
	getOrderUseCase := apporder.NewGetOrderUseCase(orderRepo, sagaStepRepo, orderCache)
	listCatalogUseCase := catalog.NewListCatalogUseCase(userRepo, itemRepo)

	// 接口层
	orderHandler := handler.NewOrderHandler(createOrderUseCase, getOrderUseCase)
	catalogHandler := handler.NewCatalogHandler(listCatalogUseCase)

	// 6. 初始化Gin引擎
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// 7. 注册路由
	registerRoutes(r, orderHandler, catalogHandler)

	// 8. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("\n🚀 服务启动成功！\n")
	fmt.Printf("   访问地址: http://localhost%s\n", addr)
	fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
	fmt.Printf("   下单页数据: GET http://localhost%s/api/v1/catalog\n", addr)
	fmt.Printf("   创建订单: POST http://localhost%s/api/v1/orders\n", addr)
	fmt.Printf("   查询订单: GET http://localhost%s/api/v1/orders/:id\n", addr)
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}

// registerRoutes 注册路由
func registerRoutes(r *gin.Engine, orderHandler *handler.OrderHandler, catalogHandler *handler.CatalogHandler) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		// 下单页数据(用户余额/商品现货)
		v1.GET("/catalog", catalogHandler.ListCatalog)

		// 订单模块
		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/:id", orderHandler.GetOrder)
		}
	}
}
