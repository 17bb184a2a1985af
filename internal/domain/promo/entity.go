package promo

import (
	"github.com/shopspring/decimal"
)

// Code 促销码实体
// 设计说明:
// 1. Code字符串是业务主键
// 2. RemainingUses永不为负——由仓储层的条件扣减保证
// 3. DiscountAmount是固定减免金额(decimal(15,2))，非百分比
type Code struct {
	Code           string
	RemainingUses  int             // 剩余可用次数
	DiscountAmount decimal.Decimal // 减免金额
}

// Usable 是否还能使用
func (c *Code) Usable() bool {
	return c.RemainingUses > 0
}

// ApplicationStatus 促销码应用状态
type ApplicationStatus string

const (
	ApplicationApplied   ApplicationStatus = "APPLIED"   // 已应用
	ApplicationCancelled ApplicationStatus = "CANCELLED" // 已取消(补偿)
)

// Application 促销码应用记录
// 记录某订单消耗了某促销码的一次使用，补偿时据此回滚
// 不变量：同一(order, code)同时最多存在一条APPLIED记录
type Application struct {
	ID      uint
	OrderID uint
	Code    string
	Status  ApplicationStatus
}
