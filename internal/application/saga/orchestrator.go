package saga

import (
	"context"
	"log"

	"github.com/xiebiao/ordersaga/internal/domain/inventory"
	"github.com/xiebiao/ordersaga/internal/domain/order"
	"github.com/xiebiao/ordersaga/internal/domain/payment"
	"github.com/xiebiao/ordersaga/internal/domain/promo"
	domsaga "github.com/xiebiao/ordersaga/internal/domain/saga"
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
	"github.com/xiebiao/ordersaga/pkg/metrics"
)

// Orchestrator 订单Saga编排器
// 职责:
// 1. 按订单内容组装步骤列表(促销码步骤可选)
// 2. 顺序驱动正向执行，捕获失败
// 3. 失败时将订单置FAILED，并逆序补偿已完成的步骤
//
// 状态机:
//
//	INIT ── 组装步骤 ──▶ RUNNING
//	RUNNING ── 步骤成功 ──▶ RUNNING (推进)
//	RUNNING ── 步骤失败/注入失败 ──▶ COMPENSATING
//	RUNNING ── 全部完成 ──▶ SUCCESS (终态)
//	COMPENSATING ── 逆序补偿完毕 ──▶ FAILED (终态)
type Orchestrator struct {
	orders      order.Repository
	discounts   promo.Service
	inventories inventory.Service
	billing     payment.Service
	runner      *runner
}

// NewOrchestrator 创建订单Saga编排器
func NewOrchestrator(
	orders order.Repository,
	records domsaga.Repository,
	tx TxManager,
	discounts promo.Service,
	inventories inventory.Service,
	billing payment.Service,
) *Orchestrator {
	return &Orchestrator{
		orders:      orders,
		discounts:   discounts,
		inventories: inventories,
		billing:     billing,
		runner:      newRunner(records, tx),
	}
}

// Execute 执行订单Saga
//
// failAtStep是故障注入参数:与即将执行的步骤同名时，在调用该步骤的
// Execute之前抛出人工失败(不产生该步骤的审计记录)——用于在任意阶段
// 从外部验证补偿行为，是对外契约的一部分。
//
// 返回值:
//   - (true, nil)  订单CONFIRMED
//   - (false, nil) 某步骤失败，订单FAILED，补偿已执行
//   - (false, err) 致命错误(订单不存在、数据库不可用)，Saga未到终态
func (s *Orchestrator) Execute(ctx context.Context, orderID uint, failAtStep string) (bool, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return false, err
	}

	log.Printf("启动Saga (order=%d, promo=%q)", orderID, o.PromoCode)
	steps := s.buildSteps(o)

	completed := make([]Step, 0, len(steps))
	var execErr error
	for _, step := range steps {
		if failAtStep != "" && failAtStep == step.Name() {
			execErr = apperrors.Newf(apperrors.ErrCodeInjectedFailure,
				"在步骤%s注入人工失败", step.Name())
			break
		}
		if err := s.runner.run(ctx, orderID, step); err != nil {
			execErr = err
			break
		}
		completed = append(completed, step)
	}

	if execErr != nil {
		log.Printf("Saga失败 (order=%d): %v", orderID, execErr)

		// 在新的工作单元中将订单置FAILED(终态)
		// 置FAILED失败也要继续补偿——部分补偿严格优于完全不补偿
		if err := s.orders.UpdateStatus(ctx, orderID, order.StatusFailed); err != nil {
			log.Printf("标记订单失败状态出错 (order=%d): %v", orderID, err)
		}

		s.compensate(orderID, completed)
		metrics.ObserveSagaOutcome(false)
		return false, nil
	}

	log.Printf("Saga完成 (order=%d)", orderID)
	metrics.ObserveSagaOutcome(true)
	return true, nil
}

// buildSteps 按订单内容组装步骤列表(顺序固定)
func (s *Orchestrator) buildSteps(o *order.Order) []Step {
	steps := make([]Step, 0, 4)
	if o.HasPromo() {
		steps = append(steps, &reservePromoUseStep{
			discounts: s.discounts,
			orderID:   o.ID,
			code:      o.PromoCode,
		})
	}
	steps = append(steps,
		&reserveInventoryStep{
			inventories: s.inventories,
			orderID:     o.ID,
			sku:         o.SKU,
			qty:         o.Qty,
		},
		&chargeUserBalanceStep{
			billing: s.billing,
			orderID: o.ID,
			userID:  o.UserID,
			amount:  o.FinalAmount,
		},
		&finalizeOrderStep{
			orders:  s.orders,
			orderID: o.ID,
		},
	)
	return steps
}

// compensate 逆序补偿已完成的步骤
// 为什么逆序？后执行的步骤可能依赖先执行的步骤的结果，
// 回滚必须从依赖链的末端开始。
//
// 使用新的Background Context:补偿不能被请求取消打断，
// 必须跑到补偿链末端。单个补偿失败由runner记录日志后继续。
func (s *Orchestrator) compensate(orderID uint, completed []Step) {
	if len(completed) == 0 {
		return
	}
	log.Printf("开始补偿 (order=%d, steps=%d)", orderID, len(completed))

	ctx := context.Background()
	for i := len(completed) - 1; i >= 0; i-- {
		s.runner.runCompensation(ctx, orderID, completed[i])
	}

	log.Printf("补偿完成 (order=%d)", orderID)
}
