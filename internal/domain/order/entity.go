package order

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// Status 订单状态
// 要点:
// 1. 使用string类型存储——审计轨迹和结果页直接展示状态名
// 2. CONFIRMED和FAILED是终态，永不回退
type Status string

const (
	StatusPending   Status = "PENDING"   // 待处理(Saga未到终态)
	StatusConfirmed Status = "CONFIRMED" // 已确认(Saga全部步骤成功)
	StatusFailed    Status = "FAILED"    // 已失败(某步骤失败，补偿已执行)
)

// Order 订单实体(聚合根)
// 设计说明:
// 1. 金额三元组满足 FinalAmount = BaseAmount - DiscountAmount
// 2. 金额冗余存储在订单上(下单时的价格快照，防止商家改价影响历史订单)
// 3. 对共享资源(促销码/库存/余额)的副作用不属于聚合，失败时只能靠补偿回滚
type Order struct {
	ID             uint
	OrderNo        string // 订单号(业务主键,全局唯一)
	UserID         uint
	SKU            string
	Qty            int
	PromoCode      string // 可选，空串表示未使用促销码
	BaseAmount     decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	Status         Status
	CreatedAt      time.Time
}

// NewOrder 创建新订单(工厂方法)
// 初始状态为PENDING，由Saga编排器推进到终态
func NewOrder(userID uint, sku string, qty int, promoCode string, base, discount decimal.Decimal) *Order {
	return &Order{
		OrderNo:        GenerateOrderNo(),
		UserID:         userID,
		SKU:            sku,
		Qty:            qty,
		PromoCode:      promoCode,
		BaseAmount:     base,
		DiscountAmount: discount,
		FinalAmount:    base.Sub(discount),
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}

// HasPromo 是否使用了促销码
func (o *Order) HasPromo() bool {
	return o.PromoCode != ""
}

// IsTerminal 是否已到终态
func (o *Order) IsTerminal() bool {
	return o.Status == StatusConfirmed || o.Status == StatusFailed
}

// CanTransitionTo 检查是否可以转换到目标状态
// 状态机:PENDING → CONFIRMED | FAILED，终态不可再转换
func (o *Order) CanTransitionTo(target Status) bool {
	if o.Status != StatusPending {
		return false
	}
	return target == StatusConfirmed || target == StatusFailed
}

// TransitionTo 状态转换
func (o *Order) TransitionTo(target Status) error {
	if !o.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	o.Status = target
	return nil
}

// GenerateOrderNo 生成订单号
//
// 格式:ORD + 时间戳(秒) + 6位随机数
// 示例:ORD1699248000123456
//
// 生产环境推荐雪花算法(分布式唯一ID)，此处沿用简单实现
func GenerateOrderNo() string {
	timestamp := time.Now().Unix()
	random := rand.Intn(1000000)
	return fmt.Sprintf("ORD%d%06d", timestamp, random)
}
