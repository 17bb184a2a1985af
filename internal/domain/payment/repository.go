package payment

import (
	"context"
)

// Repository 支付流水仓储接口
type Repository interface {
	// Create 写入支付流水
	Create(ctx context.Context, p *Payment) error

	// MarkRefunded 将匹配的CHARGED流水置为REFUNDED
	// 没有匹配记录时不报错(容忍孤儿补偿)
	MarkRefunded(ctx context.Context, orderID, userID uint) error
}
