package payment

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// Status 支付状态
type Status string

const (
	StatusCharged  Status = "CHARGED"  // 已扣款
	StatusRefunded Status = "REFUNDED" // 已退款(补偿)
)

// Payment 支付流水实体
// 记录某订单对某用户的一次余额扣款，补偿时据此退款
// 不变量：同一(order, user)同时最多存在一条CHARGED记录
type Payment struct {
	ID        uint
	PaymentNo string // 支付流水号(业务主键)
	OrderID   uint
	UserID    uint
	Amount    decimal.Decimal
	Status    Status
}

// GeneratePaymentNo 生成支付流水号
//
// 格式：PAY + YYYYMMDDHHMMSS + 6位随机数
// 示例：PAY20251106123456789012
func GeneratePaymentNo() string {
	now := time.Now()
	timePart := now.Format("20060102150405")
	randomPart := rand.Intn(900000) + 100000
	return fmt.Sprintf("PAY%s%d", timePart, randomPart)
}
