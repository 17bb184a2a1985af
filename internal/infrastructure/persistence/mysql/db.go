package mysql

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/ordersaga/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 时间戳统一使用UTC（审计记录按started_at排序，时区必须一致）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Println("✓ 数据库连接成功")

	// 自动迁移表结构（开发环境）
	// 生产环境应使用版本化的迁移脚本
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&InventoryItemModel{},
		&PromoCodeModel{},
		&OrderModel{},
		&SagaStepModel{},
		&PromoApplicationModel{},
		&InventoryReservationModel{},
		&PaymentModel{},
	)
}

// =========================================
// GORM模型定义
// 设计说明:
// 1. infrastructure层的数据模型，包含GORM tag
// 2. domain层的实体不依赖GORM，Repository负责两者转换
// 3. 金额统一decimal(15,2)，禁止浮点列
// =========================================

// UserModel GORM用户模型
type UserModel struct {
	ID      uint            `gorm:"primaryKey"`
	Name    string          `gorm:"size:100;not null;comment:用户名"`
	Balance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;comment:账户余额"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// InventoryItemModel GORM库存商品模型
type InventoryItemModel struct {
	SKU    string          `gorm:"primaryKey;size:50"`
	Name   string          `gorm:"size:200;not null;comment:商品名"`
	Price  decimal.Decimal `gorm:"type:decimal(15,2);not null;comment:单价"`
	OnHand int             `gorm:"not null;default:0;comment:现货数量"`
}

// TableName 指定表名
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// PromoCodeModel GORM促销码模型
type PromoCodeModel struct {
	Code           string          `gorm:"primaryKey;size:50"`
	RemainingUses  int             `gorm:"not null;default:0;comment:剩余可用次数"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;comment:减免金额"`
}

// TableName 指定表名
func (PromoCodeModel) TableName() string {
	return "promo_codes"
}

// OrderModel GORM订单模型
// 要点:
// 1. OrderNo有唯一索引(业务主键)
// 2. 金额三元组冗余存储(下单时的价格快照)
// 3. Status是字符串(PENDING/CONFIRMED/FAILED)，结果页直接展示
type OrderModel struct {
	ID             uint            `gorm:"primaryKey"`
	OrderNo        string          `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID         uint            `gorm:"index;not null;comment:买家用户ID"`
	SKU            string          `gorm:"size:50;not null;comment:商品SKU"`
	Qty            int             `gorm:"not null;comment:购买数量"`
	PromoCode      string          `gorm:"size:50;comment:促销码(可空)"`
	BaseAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null;comment:原价金额"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;comment:减免金额"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null;comment:应付金额"`
	Status         string          `gorm:"index;size:20;not null;default:PENDING;comment:订单状态"`
	CreatedAt      time.Time       `gorm:"type:datetime(6);comment:创建时间(UTC)"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// SagaStepModel GORM审计记录模型
// 要点:started_at使用datetime(6)微秒精度——补偿顺序断言依赖时间戳排序
type SagaStepModel struct {
	ID         uint       `gorm:"primaryKey"`
	OrderID    uint       `gorm:"index;not null;comment:所属订单ID"`
	StepName   string     `gorm:"size:64;not null;comment:步骤名"`
	Status     string     `gorm:"size:20;not null;comment:STARTED/COMPLETED/FAILED/COMPENSATED"`
	Error      string     `gorm:"type:text;comment:失败原因"`
	StartedAt  time.Time  `gorm:"type:datetime(6);not null;comment:开始时间(UTC)"`
	FinishedAt *time.Time `gorm:"type:datetime(6);comment:结束时间(UTC)"`
}

// TableName 指定表名
func (SagaStepModel) TableName() string {
	return "saga_steps"
}

// PromoApplicationModel GORM促销码应用记录模型
type PromoApplicationModel struct {
	ID      uint   `gorm:"primaryKey"`
	OrderID uint   `gorm:"index;not null;comment:所属订单ID"`
	Code    string `gorm:"size:50;not null;comment:促销码"`
	Status  string `gorm:"size:20;not null;comment:APPLIED/CANCELLED"`
}

// TableName 指定表名
func (PromoApplicationModel) TableName() string {
	return "promo_applications"
}

// InventoryReservationModel GORM库存预留记录模型
type InventoryReservationModel struct {
	ID      uint   `gorm:"primaryKey"`
	OrderID uint   `gorm:"index;not null;comment:所属订单ID"`
	SKU     string `gorm:"size:50;not null;comment:商品SKU"`
	Qty     int    `gorm:"not null;comment:预留数量"`
	Status  string `gorm:"size:20;not null;comment:RESERVED/RELEASED"`
}

// TableName 指定表名
func (InventoryReservationModel) TableName() string {
	return "inventory_reservations"
}

// PaymentModel GORM支付流水模型
type PaymentModel struct {
	ID        uint            `gorm:"primaryKey"`
	PaymentNo string          `gorm:"uniqueIndex;size:32;not null;comment:支付流水号"`
	OrderID   uint            `gorm:"index;not null;comment:所属订单ID"`
	UserID    uint            `gorm:"index;not null;comment:用户ID"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null;comment:扣款金额"`
	Status    string          `gorm:"size:20;not null;comment:CHARGED/REFUNDED"`
}

// TableName 指定表名
func (PaymentModel) TableName() string {
	return "payments"
}
