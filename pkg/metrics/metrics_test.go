package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestObserveSagaOutcome 验证Saga终态计数
func TestObserveSagaOutcome(t *testing.T) {
	beforeSuccess := testutil.ToFloat64(SagaExecutionsTotal.WithLabelValues("success"))
	beforeFailed := testutil.ToFloat64(SagaExecutionsTotal.WithLabelValues("failed"))

	ObserveSagaOutcome(true)
	ObserveSagaOutcome(false)
	ObserveSagaOutcome(false)

	gotSuccess := testutil.ToFloat64(SagaExecutionsTotal.WithLabelValues("success"))
	gotFailed := testutil.ToFloat64(SagaExecutionsTotal.WithLabelValues("failed"))

	if gotSuccess-beforeSuccess != 1 {
		t.Errorf("success计数错误: expected=+1, got=+%f", gotSuccess-beforeSuccess)
	}
	if gotFailed-beforeFailed != 2 {
		t.Errorf("failed计数错误: expected=+2, got=+%f", gotFailed-beforeFailed)
	}
}

// TestObserveCompensation 验证补偿计数(按步骤和结果区分)
func TestObserveCompensation(t *testing.T) {
	before := testutil.ToFloat64(CompensationsTotal.WithLabelValues("ReserveInventory", "completed"))
	beforeFailed := testutil.ToFloat64(CompensationsTotal.WithLabelValues("ReserveInventory", "failed"))

	ObserveCompensation("ReserveInventory", nil)
	ObserveCompensation("ReserveInventory", errors.New("数据库不可用"))

	if got := testutil.ToFloat64(CompensationsTotal.WithLabelValues("ReserveInventory", "completed")); got-before != 1 {
		t.Errorf("completed计数错误: expected=+1, got=+%f", got-before)
	}
	if got := testutil.ToFloat64(CompensationsTotal.WithLabelValues("ReserveInventory", "failed")); got-beforeFailed != 1 {
		t.Errorf("failed计数错误: expected=+1, got=+%f", got-beforeFailed)
	}
}

// TestObserveStep 验证步骤耗时直方图有样本写入
func TestObserveStep(t *testing.T) {
	start := time.Now().Add(-10 * time.Millisecond)

	ObserveStep("ChargeUserBalance", start, nil)
	ObserveStep("ChargeUserBalance", start, errors.New("余额不足"))

	// Histogram无法直接读数值,验证采集不panic且标签合法即可
	count := testutil.CollectAndCount(SagaStepDuration)
	if count == 0 {
		t.Error("步骤耗时直方图没有任何样本")
	}
}
