package promo

import (
	"context"
)

// Repository 促销码仓储接口
type Repository interface {
	// FindByCode 根据促销码查找
	FindByCode(ctx context.Context, code string) (*Code, error)

	// DecrementUses 扣减一次使用次数(原子操作)
	// 执行: UPDATE promo_codes SET remaining_uses = remaining_uses - 1
	//       WHERE code = ? AND remaining_uses >= 1
	// 次数耗尽时返回ErrPromoExhausted
	DecrementUses(ctx context.Context, code string) error

	// IncrementUses 归还一次使用次数(释放补偿用)
	IncrementUses(ctx context.Context, code string) error
}

// ApplicationRepository 促销码应用记录仓储接口
type ApplicationRepository interface {
	// Create 写入应用记录
	Create(ctx context.Context, a *Application) error

	// Cancel 将匹配的APPLIED记录置为CANCELLED
	// 没有匹配记录时不报错(容忍孤儿补偿)
	Cancel(ctx context.Context, orderID uint, code string) error
}
