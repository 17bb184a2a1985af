//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 说明:
// 1. Wire是Google开发的编译期依赖注入工具
// 2. 与运行时反射注入不同，Wire在编译期生成代码
// 3. 优势:零运行时开销、类型安全、编译期检测循环依赖
//
// Wire工作流程:
// Step 1: 编写wire.go(本文件)，定义Providers和Injector
// Step 2: 运行 `wire gen ./cmd/api`
// Step 3: Wire生成wire_gen.go，包含完整的依赖创建代码
// Step 4: main.go调用wire_gen.go中的InitializeApp()

package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

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

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================

// infrastructureSet 基础设施层依赖
// 包含:配置加载、数据库连接、Redis连接
var infrastructureSet = wire.NewSet(
	config.Load,     // 加载配置文件
	mysql.NewDB,     // 创建MySQL连接
	redis.NewClient, // 创建Redis连接
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,        // 用户仓储
	mysql.NewItemRepository,        // 库存商品仓储
	mysql.NewReservationRepository, // 库存预留记录仓储
	mysql.NewPromoRepository,       // 促销码仓储
	mysql.NewApplicationRepository, // 促销码应用记录仓储
	mysql.NewOrderRepository,       // 订单仓储
	mysql.NewPaymentRepository,     // 支付流水仓储
	mysql.NewSagaStepRepository,    // 审计记录仓储
	provideTxManager,               // 事务管理器(绑定到saga.TxManager接口)
	provideOrderCache,              // 订单视图缓存(需要从config提取TTL)
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	promo.NewService,     // 促销码领域服务
	inventory.NewService, // 库存领域服务
	payment.NewService,   // 支付领域服务
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	appsaga.NewOrchestrator,         // Saga编排器
	providePublisher,                // 事件发布器(可选,未启用时为nil)
	apporder.NewCreateOrderUseCase,  // 下单用例
	apporder.NewGetOrderUseCase,     // 订单查询用例
	catalog.NewListCatalogUseCase,   // 下单页数据用例
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewOrderHandler,   // 订单处理器
	handler.NewCatalogHandler, // 下单页数据处理器
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================

// provideTxManager 创建事务管理器并绑定到应用层接口
// 要点:NewOrchestrator依赖appsaga.TxManager接口，
// Wire无法自动把*mysql.TxManager识别为接口实现，需要显式转换
func provideTxManager(db *gorm.DB) appsaga.TxManager {
	return mysql.NewTxManager(db)
}

// provideOrderCache 从配置创建订单视图缓存
// 要点:NewOrderCache需要TTL参数，Wire无法自动从Config提取
func provideOrderCache(client *goredis.Client, cfg *config.Config) apporder.OrderCache {
	return redis.NewOrderCache(client, cfg.Redis.ViewTTL)
}

// providePublisher 从配置创建事件发布器
// 要点:
// 1. RabbitMQ是可选能力，未启用时返回nil接口，用例内部跳过发布
// 2. 发布链路带熔断保护，Broker持续故障时快速失败
func providePublisher(cfg *config.Config) (apporder.EventPublisher, error) {
	if !cfg.RabbitMQ.Enabled {
		return nil, nil
	}
	publisher, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		return nil, err
	}
	breaker := circuitbreaker.New("rabbitmq-publish", 5, 30*time.Second)
	return mq.NewGuardedPublisher(publisher, breaker), nil
}

// provideGinEngine 创建并配置Gin引擎
func provideGinEngine(
	cfg *config.Config,
	orderHandler *handler.OrderHandler,
	catalogHandler *handler.CatalogHandler,
) *gin.Engine {
	// 设置运行模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Swagger文档路由
	// 访问 http://localhost:8080/swagger/index.html 查看API文档
	// 生产环境建议禁用Swagger或添加访问控制
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		v1.GET("/catalog", catalogHandler.ListCatalog)

		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/:id", orderHandler.GetOrder)
		}
	}

	return r
}

// ========================================
// Wire Injector (依赖注入器)
// ========================================

// InitializeApp 初始化整个应用
// wire.Build告诉Wire需要哪些Provider来构建*gin.Engine，
// Wire在编译期分析依赖链并生成初始化代码(wire_gen.go)
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		handlerSet,
		provideGinEngine,
	)

	// 占位返回值,实际由wire_gen.go生成的代码替代
	return nil, nil
}
