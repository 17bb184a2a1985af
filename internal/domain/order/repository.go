package order

import (
	"context"
)

// Repository 订单仓储接口
type Repository interface {
	// Create 创建订单(初始PENDING)
	Create(ctx context.Context, o *Order) error

	// FindByID 根据ID查找订单
	FindByID(ctx context.Context, id uint) (*Order, error)

	// UpdateStatus 推进订单状态
	// 执行带守卫的更新: UPDATE orders SET status = ? WHERE id = ? AND status = 'PENDING'
	// 终态永不回退；订单已不在PENDING时返回ErrInvalidStatusTransition
	UpdateStatus(ctx context.Context, id uint, target Status) error
}
