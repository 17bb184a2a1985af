package mysql

import (
	"context"

	"gorm.io/gorm"

	domsaga "github.com/xiebiao/ordersaga/internal/domain/saga"
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
)

// sagaStepRepository 审计记录仓储实现(MySQL)
// 设计说明:
// 1. 审计写入故意绕开context中的事务DB，始终使用独立连接立即提交——
//    业务事务回滚时审计轨迹必须保留(STARTED记录就是崩溃的证据)
// 2. ListByOrderID按started_at升序(ID做同微秒的平局裁决)，
//    结果页和补偿顺序断言都依赖这个顺序
type sagaStepRepository struct {
	db *gorm.DB
}

// NewSagaStepRepository 创建审计记录仓储
func NewSagaStepRepository(db *gorm.DB) domsaga.Repository {
	return &sagaStepRepository{db: db}
}

// Create 插入审计记录并立即提交
// 注意:不调用getDB——审计记录使用独立的工作单元
func (r *sagaStepRepository) Create(ctx context.Context, record *domsaga.StepRecord) error {
	model := toStepModel(record)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "写入审计记录失败")
	}

	record.ID = model.ID
	return nil
}

// Update 更新审计记录(STARTED → COMPLETED/FAILED)并立即提交
func (r *sagaStepRepository) Update(ctx context.Context, record *domsaga.StepRecord) error {
	result := r.db.WithContext(ctx).Model(&SagaStepModel{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"status":      string(record.Status),
			"error":       record.Error,
			"finished_at": record.FinishedAt,
		})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新审计记录失败")
	}

	return nil
}

// ListByOrderID 查询订单的完整审计轨迹
func (r *sagaStepRepository) ListByOrderID(ctx context.Context, orderID uint) ([]*domsaga.StepRecord, error) {
	var models []SagaStepModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("started_at, id").
		Find(&models).Error

	if err != nil {
		return nil, apperrors.Wrap(err, "查询审计轨迹失败")
	}

	records := make([]*domsaga.StepRecord, len(models))
	for i := range models {
		records[i] = toStepEntity(&models[i])
	}
	return records, nil
}

// toStepModel 领域实体 → GORM模型
func toStepModel(record *domsaga.StepRecord) *SagaStepModel {
	return &SagaStepModel{
		ID:         record.ID,
		OrderID:    record.OrderID,
		StepName:   record.StepName,
		Status:     string(record.Status),
		Error:      record.Error,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
	}
}

// toStepEntity GORM模型 → 领域实体
func toStepEntity(model *SagaStepModel) *domsaga.StepRecord {
	return &domsaga.StepRecord{
		ID:         model.ID,
		OrderID:    model.OrderID,
		StepName:   model.StepName,
		Status:     domsaga.StepStatus(model.Status),
		Error:      model.Error,
		StartedAt:  model.StartedAt,
		FinishedAt: model.FinishedAt,
	}
}
