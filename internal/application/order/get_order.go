package order

import (
	"context"
	"log"

	"github.com/xiebiao/ordersaga/internal/domain/order"
	domsaga "github.com/xiebiao/ordersaga/internal/domain/saga"
)

// GetOrderUseCase 订单结果查询用例
// 缓存策略:cache-aside
// 1. 先查Redis，命中直接返回
// 2. 未命中查数据库，订单已到终态时回填缓存(终态不再变化，可安全缓存)
type GetOrderUseCase struct {
	orders  order.Repository
	records domsaga.Repository
	cache   OrderCache // 可选，nil时跳过
}

// NewGetOrderUseCase 创建订单查询用例
func NewGetOrderUseCase(orders order.Repository, records domsaga.Repository, cache OrderCache) *GetOrderUseCase {
	return &GetOrderUseCase{orders: orders, records: records, cache: cache}
}

// Execute 查询订单结果视图(订单 + 审计轨迹)
func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID uint) (*OrderView, error) {
	// 1. 查缓存(失败按未命中处理)
	if uc.cache != nil {
		view, err := uc.cache.GetView(ctx, orderID)
		if err != nil {
			log.Printf("读取订单缓存失败 (order=%d): %v", orderID, err)
		} else if view != nil {
			return view, nil
		}
	}

	// 2. 查数据库
	o, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	records, err := uc.records.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view := newOrderView(o, records)

	// 3. 终态订单回填缓存(PENDING订单还会变化，不缓存)
	if uc.cache != nil && o.IsTerminal() {
		if err := uc.cache.SaveView(ctx, view); err != nil {
			log.Printf("回填订单缓存失败 (order=%d): %v", orderID, err)
		}
	}

	return view, nil
}
