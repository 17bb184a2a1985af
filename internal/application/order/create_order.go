package order

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/ordersaga/internal/application/saga"
	"github.com/xiebiao/ordersaga/internal/domain/inventory"
	"github.com/xiebiao/ordersaga/internal/domain/order"
	"github.com/xiebiao/ordersaga/internal/domain/promo"
	domsaga "github.com/xiebiao/ordersaga/internal/domain/saga"
	"github.com/xiebiao/ordersaga/internal/domain/user"
	"github.com/xiebiao/ordersaga/pkg/metrics"
)

// CreateOrderUseCase 下单用例(Saga入口)
// 职责:
// 1. 校验请求(数量、用户、商品、促销码)——校验失败在Saga开始前返回
// 2. 计算金额三元组并持久化PENDING订单(独立提交)
// 3. 交给Saga编排器推进到终态
// 4. 读取完整审计轨迹，组装结果视图；缓存与事件发布尽力而为
type CreateOrderUseCase struct {
	users       user.Repository
	items       inventory.Repository
	promos      promo.Repository
	discounts   promo.Service
	orders      order.Repository
	records     domsaga.Repository
	saga        *saga.Orchestrator
	cache       OrderCache     // 可选，nil时跳过
	events      EventPublisher // 可选，nil时跳过
}

// NewCreateOrderUseCase 创建下单用例
func NewCreateOrderUseCase(
	users user.Repository,
	items inventory.Repository,
	promos promo.Repository,
	discounts promo.Service,
	orders order.Repository,
	records domsaga.Repository,
	orchestrator *saga.Orchestrator,
	cache OrderCache,
	events EventPublisher,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		users:     users,
		items:     items,
		promos:    promos,
		discounts: discounts,
		orders:    orders,
		records:   records,
		saga:      orchestrator,
		cache:     cache,
		events:    events,
	}
}

// CreateOrderRequest 下单请求DTO
type CreateOrderRequest struct {
	UserID    uint
	SKU       string
	Qty       int
	PromoCode string // 可选
	// FailAtStep 故障注入:与某步骤同名时在该步骤前人工失败
	// 契约的一部分，用于从外部验证任意阶段的补偿行为
	FailAtStep string
}

// Execute 执行下单
// 返回值语义:
//   - (view, nil)  Saga到达终态(CONFIRMED或FAILED)，view.Success区分结果
//   - (nil, err)   校验失败(Saga未启动)或致命错误
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (*OrderView, error) {
	// ========================================
	// 1. 请求校验(全部在Saga开始之前)
	// ========================================
	if req.Qty <= 0 {
		return nil, order.ErrInvalidQuantity
	}

	if _, err := uc.users.FindByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	item, err := uc.items.FindBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}

	promoCode := strings.TrimSpace(req.PromoCode)
	if promoCode != "" {
		p, err := uc.promos.FindByCode(ctx, promoCode)
		if err != nil {
			return nil, err
		}
		if !p.Usable() {
			return nil, promo.ErrPromoExhausted
		}
	}

	// ========================================
	// 2. 计算金额三元组
	// ========================================
	// base = 单价 × 数量；discount由促销码服务计算(纯读)；final = base - discount
	base := item.Price.Mul(decimal.NewFromInt(int64(req.Qty)))
	discount, err := uc.discounts.CalculateDiscount(ctx, promoCode, base)
	if err != nil {
		return nil, err
	}

	// ========================================
	// 3. 持久化PENDING订单(独立提交)
	// ========================================
	// 订单必须先于Saga落盘:审计记录通过order_id关联，
	// Saga失败时订单实体承载FAILED终态
	newOrder := order.NewOrder(req.UserID, req.SKU, req.Qty, promoCode, base, discount)
	if err := uc.orders.Create(ctx, newOrder); err != nil {
		return nil, err
	}

	// ========================================
	// 4. 驱动Saga到终态
	// ========================================
	ok, err := uc.saga.Execute(ctx, newOrder.ID, req.FailAtStep)
	if err != nil {
		return nil, err
	}

	// ========================================
	// 5. 组装结果视图(订单终态 + 完整审计轨迹)
	// ========================================
	view, err := uc.loadView(ctx, newOrder.ID)
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreatedTotal.WithLabelValues(view.Status).Inc()
	uc.publishOutcome(ctx, view)
	uc.cacheView(ctx, view)

	if !ok {
		log.Printf("订单%d下单失败，补偿已执行", newOrder.ID)
	}
	return view, nil
}

// loadView 重新加载订单和审计轨迹，组装视图
func (uc *CreateOrderUseCase) loadView(ctx context.Context, orderID uint) (*OrderView, error) {
	o, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	records, err := uc.records.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return newOrderView(o, records), nil
}

// publishOutcome 发布订单终态事件(尽力而为)
func (uc *CreateOrderUseCase) publishOutcome(ctx context.Context, view *OrderView) {
	if uc.events == nil {
		return
	}

	routingKey := "order.failed"
	if view.Success {
		routingKey = "order.confirmed"
	}

	event := OrderEvent{
		OrderID:     view.OrderID,
		OrderNo:     view.OrderNo,
		UserID:      view.UserID,
		SKU:         view.SKU,
		Qty:         view.Qty,
		FinalAmount: view.FinalAmount,
		Status:      view.Status,
		OccurredAt:  time.Now().UTC(),
	}
	if err := uc.events.Publish(ctx, routingKey, event); err != nil {
		log.Printf("发布订单事件失败 (order=%d): %v", view.OrderID, err)
	}
}

// cacheView 缓存终态订单视图(尽力而为)
func (uc *CreateOrderUseCase) cacheView(ctx context.Context, view *OrderView) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.SaveView(ctx, view); err != nil {
		log.Printf("缓存订单视图失败 (order=%d): %v", view.OrderID, err)
	}
}
