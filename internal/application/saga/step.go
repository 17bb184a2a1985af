// Package saga 实现订单Saga的步骤框架与编排器
//
// Saga模式核心思想：
// 1. 将跨资源的长事务拆分为多个本地短事务(步骤)
// 2. 每个步骤有对应的补偿操作
// 3. 某步失败时，按逆序执行已完成步骤的补偿操作
//
// 与通用Saga框架的差异：每个步骤的执行都落盘到saga_steps审计表，
// 结果页能完整回放"哪些正向步骤提交了、哪些补偿跑过了"。
package saga

import (
	"context"
	"log"
	"time"

	domsaga "github.com/xiebiao/ordersaga/internal/domain/saga"
	"github.com/xiebiao/ordersaga/pkg/metrics"
)

// Step Saga步骤
// 设计要点:
// 1. Execute是正向操作(如扣减库存)，Compensate是补偿操作(如释放库存)
// 2. 补偿操作必须容忍目标资源缺失(幂等no-op)，允许安全重放
// 3. 步骤自身携带业务参数(订单ID、SKU等)，不依赖外部可变状态
type Step interface {
	// Execute 正向操作，在一个独立事务中执行
	Execute(ctx context.Context) error

	// Compensate 补偿操作，在一个独立事务中执行
	Compensate(ctx context.Context) error

	// Name 步骤名称(写入审计记录，也用于故障注入匹配)
	Name() string
}

// TxManager 事务管理器接口
// 由infrastructure层的mysql.TxManager实现；测试中用直通实现替代
type TxManager interface {
	// Transaction 在一个事务中执行fn，fn返回error时回滚，否则提交
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// runner 步骤执行器：为每个步骤包上固定的审计协议
type runner struct {
	records domsaga.Repository
	tx      TxManager
}

func newRunner(records domsaga.Repository, tx TxManager) *runner {
	return &runner{records: records, tx: tx}
}

// run 执行正向协议
//
// 1. 插入STARTED审计记录并独立提交——必须在Execute之前落盘，
//    进程在Execute中途崩溃时审计轨迹仍能证明这次尝试
// 2. 在事务中调用Execute；成功则将记录更新为COMPLETED
// 3. 失败则业务事务已由TxManager回滚，在新的工作单元中将记录
//    更新为FAILED(带错误信息)，并把失败上抛给编排器
func (r *runner) run(ctx context.Context, orderID uint, step Step) error {
	name := step.Name()
	log.Printf("执行步骤: %s (order=%d)", name, orderID)

	rec := domsaga.NewStartedRecord(orderID, name)
	if err := r.records.Create(ctx, rec); err != nil {
		return err
	}

	start := time.Now()
	execErr := r.tx.Transaction(ctx, step.Execute)
	metrics.ObserveStep(name, start, execErr)

	if execErr != nil {
		rec.Fail(execErr)
		if err := r.records.Update(ctx, rec); err != nil {
			// 审计更新失败是致命错误，但原始业务失败更有信息量
			log.Printf("更新审计记录失败: %v", err)
		}
		log.Printf("步骤%s失败: %v", name, execErr)
		return execErr
	}

	rec.Complete()
	if err := r.records.Update(ctx, rec); err != nil {
		return err
	}
	log.Printf("步骤%s完成", name)
	return nil
}

// runCompensation 执行补偿协议
//
// 补偿成功时插入一条新的"Compensate_<name>"审计记录；
// 补偿失败只记日志不上抛——部分补偿严格优于完全不补偿，
// 补偿链必须继续走完剩余步骤
func (r *runner) runCompensation(ctx context.Context, orderID uint, step Step) {
	name := step.Name()
	log.Printf("补偿步骤: %s (order=%d)", name, orderID)

	err := r.tx.Transaction(ctx, step.Compensate)
	metrics.ObserveCompensation(name, err)
	if err != nil {
		// 补偿失败需要人工介入，生产环境应在此接告警
		log.Printf("步骤%s补偿失败: %v", name, err)
		return
	}

	rec := domsaga.NewCompensationRecord(orderID, name)
	if err := r.records.Create(ctx, rec); err != nil {
		log.Printf("写入补偿审计记录失败: %v", err)
		return
	}
	log.Printf("步骤%s补偿完成", name)
}
