package saga

import (
	"context"
)

// Repository 审计记录仓储接口
// 要点:审计写入使用独立的工作单元(不参与业务事务)，
// 业务事务回滚时审计轨迹必须保留
type Repository interface {
	// Create 插入审计记录并立即提交
	Create(ctx context.Context, r *StepRecord) error

	// Update 更新审计记录(STARTED → COMPLETED/FAILED)并立即提交
	Update(ctx context.Context, r *StepRecord) error

	// ListByOrderID 查询订单的完整审计轨迹(按started_at升序)
	ListByOrderID(ctx context.Context, orderID uint) ([]*StepRecord, error)
}
