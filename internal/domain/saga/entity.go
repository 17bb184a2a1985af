package saga

import (
	"time"
)

// StepStatus 审计记录状态
// 一条记录只会从STARTED转换到某个终态，概念上是append-only的
type StepStatus string

const (
	StepStarted     StepStatus = "STARTED"     // execute开始前已持久化
	StepCompleted   StepStatus = "COMPLETED"   // execute成功
	StepFailed      StepStatus = "FAILED"      // execute失败(错误信息记录在Error)
	StepCompensated StepStatus = "COMPENSATED" // 保留状态(补偿以独立的Compensate_*记录表达)
)

// CompensationPrefix 补偿审计记录的步骤名前缀
// 补偿成功时写入step_name = "Compensate_" + 正向步骤名的新记录
const CompensationPrefix = "Compensate_"

// StepRecord Saga步骤审计记录
// 设计说明:
// 1. STARTED记录必须在execute之前独立提交——即使进程在execute中途崩溃，
//    审计轨迹也要留下这次尝试的证据
// 2. 结果页按started_at排序展示整条轨迹，包括失败步骤和补偿记录
type StepRecord struct {
	ID         uint
	OrderID    uint
	StepName   string
	Status     StepStatus
	Error      string // 失败原因(仅FAILED记录)
	StartedAt  time.Time
	FinishedAt *time.Time
}

// NewStartedRecord 创建一条STARTED审计记录
func NewStartedRecord(orderID uint, stepName string) *StepRecord {
	return &StepRecord{
		OrderID:   orderID,
		StepName:  stepName,
		Status:    StepStarted,
		StartedAt: time.Now().UTC(),
	}
}

// NewCompensationRecord 创建一条补偿完成审计记录
// 补偿记录没有STARTED阶段，started_at = finished_at = now
func NewCompensationRecord(orderID uint, stepName string) *StepRecord {
	now := time.Now().UTC()
	return &StepRecord{
		OrderID:    orderID,
		StepName:   CompensationPrefix + stepName,
		Status:     StepCompleted,
		StartedAt:  now,
		FinishedAt: &now,
	}
}

// Complete 标记执行成功
func (r *StepRecord) Complete() {
	now := time.Now().UTC()
	r.Status = StepCompleted
	r.FinishedAt = &now
}

// Fail 标记执行失败并记录原因
func (r *StepRecord) Fail(err error) {
	now := time.Now().UTC()
	r.Status = StepFailed
	r.Error = err.Error()
	r.FinishedAt = &now
}
