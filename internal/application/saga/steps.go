package saga

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/ordersaga/internal/domain/inventory"
	"github.com/xiebiao/ordersaga/internal/domain/order"
	"github.com/xiebiao/ordersaga/internal/domain/payment"
	"github.com/xiebiao/ordersaga/internal/domain/promo"
)

// 步骤名称常量
// 故障注入参数fail_at_step按这些名称匹配
const (
	StepReservePromoUse   = "ReservePromoUse"
	StepReserveInventory  = "ReserveInventory"
	StepChargeUserBalance = "ChargeUserBalance"
	StepFinalizeOrder     = "FinalizeOrder"
)

// reservePromoUseStep 占用促销码使用次数
// 仅当订单携带促销码时加入步骤列表
type reservePromoUseStep struct {
	discounts promo.Service
	orderID   uint
	code      string
}

func (s *reservePromoUseStep) Execute(ctx context.Context) error {
	return s.discounts.ReserveUse(ctx, s.orderID, s.code)
}

func (s *reservePromoUseStep) Compensate(ctx context.Context) error {
	return s.discounts.ReleaseUse(ctx, s.orderID, s.code)
}

func (s *reservePromoUseStep) Name() string {
	return StepReservePromoUse
}

// reserveInventoryStep 预留库存
type reserveInventoryStep struct {
	inventories inventory.Service
	orderID     uint
	sku         string
	qty         int
}

func (s *reserveInventoryStep) Execute(ctx context.Context) error {
	return s.inventories.Reserve(ctx, s.orderID, s.sku, s.qty)
}

func (s *reserveInventoryStep) Compensate(ctx context.Context) error {
	return s.inventories.Release(ctx, s.orderID, s.sku, s.qty)
}

func (s *reserveInventoryStep) Name() string {
	return StepReserveInventory
}

// chargeUserBalanceStep 扣减用户余额
type chargeUserBalanceStep struct {
	billing payment.Service
	orderID uint
	userID  uint
	amount  decimal.Decimal
}

func (s *chargeUserBalanceStep) Execute(ctx context.Context) error {
	return s.billing.Charge(ctx, s.orderID, s.userID, s.amount)
}

func (s *chargeUserBalanceStep) Compensate(ctx context.Context) error {
	return s.billing.Refund(ctx, s.orderID, s.userID, s.amount)
}

func (s *chargeUserBalanceStep) Name() string {
	return StepChargeUserBalance
}

// finalizeOrderStep 确认订单(最后一个正向步骤)
// 补偿为no-op:订单状态与本步骤在事务上折叠，失败路径由编排器统一置FAILED
type finalizeOrderStep struct {
	orders  order.Repository
	orderID uint
}

func (s *finalizeOrderStep) Execute(ctx context.Context) error {
	return s.orders.UpdateStatus(ctx, s.orderID, order.StatusConfirmed)
}

func (s *finalizeOrderStep) Compensate(ctx context.Context) error {
	return nil
}

func (s *finalizeOrderStep) Name() string {
	return StepFinalizeOrder
}
