package inventory

import (
	"context"
)

// Repository 库存仓储接口
// 扣减库存必须是原子条件更新，防止并发超卖
type Repository interface {
	// FindBySKU 根据SKU查找商品
	FindBySKU(ctx context.Context, sku string) (*Item, error)

	// List 查询全部商品(供下单页面展示)
	List(ctx context.Context) ([]*Item, error)

	// DeductStock 扣减现货(原子操作)
	// 执行: UPDATE inventory_items SET on_hand = on_hand - ? WHERE sku = ? AND on_hand >= ?
	// 现货不足时返回ErrInsufficientStock
	DeductStock(ctx context.Context, sku string, qty int) error

	// RestoreStock 恢复现货(释放补偿用)
	RestoreStock(ctx context.Context, sku string, qty int) error
}

// ReservationRepository 库存预留记录仓储接口
type ReservationRepository interface {
	// Create 写入预留记录
	Create(ctx context.Context, r *Reservation) error

	// Release 将匹配的RESERVED记录置为RELEASED
	// 没有匹配记录时不报错(容忍孤儿补偿)
	Release(ctx context.Context, orderID uint, sku string) error
}
