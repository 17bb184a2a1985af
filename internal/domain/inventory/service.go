package inventory

import (
	"context"
	"errors"
)

// Service 库存领域服务接口
// Saga正向步骤调用Reserve，补偿调用Release
// 要点:
// 1. Reserve内的扣减+预留记录必须在同一事务中执行(由调用方的事务包裹)
// 2. Release对缺失资源是幂等的no-op，补偿永远可以安全重放
type Service interface {
	// Reserve 为订单预留库存
	// 商品不存在或现货不足时返回错误
	Reserve(ctx context.Context, orderID uint, sku string, qty int) error

	// Release 释放订单的库存预留(补偿操作)
	// 商品不存在时直接返回nil(容忍孤儿补偿)
	Release(ctx context.Context, orderID uint, sku string, qty int) error
}

type service struct {
	items        Repository
	reservations ReservationRepository
}

// NewService 创建库存领域服务
func NewService(items Repository, reservations ReservationRepository) Service {
	return &service{items: items, reservations: reservations}
}

// Reserve 为订单预留库存
func (s *service) Reserve(ctx context.Context, orderID uint, sku string, qty int) error {
	// 1. 确认商品存在(区分"不存在"和"现货不足"两种错误)
	item, err := s.items.FindBySKU(ctx, sku)
	if err != nil {
		return err
	}
	if !item.HasStock(qty) {
		return ErrInsufficientStock
	}

	// 2. 原子扣减现货
	// 要点:步骤1的检查只为友好报错，真正的防超卖由条件UPDATE保证
	if err := s.items.DeductStock(ctx, sku, qty); err != nil {
		return err
	}

	// 3. 写入预留记录(与扣减同事务)
	return s.reservations.Create(ctx, &Reservation{
		OrderID: orderID,
		SKU:     sku,
		Qty:     qty,
		Status:  ReservationReserved,
	})
}

// Release 释放订单的库存预留
func (s *service) Release(ctx context.Context, orderID uint, sku string, qty int) error {
	// 商品不存在 → no-op(孤儿补偿不报错)
	if _, err := s.items.FindBySKU(ctx, sku); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil
		}
		return err
	}

	if err := s.items.RestoreStock(ctx, sku, qty); err != nil {
		return err
	}

	return s.reservations.Release(ctx, orderID, sku)
}
