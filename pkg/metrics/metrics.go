// Package metrics 提供基于Prometheus的指标收集
//
// 指标设计（围绕Saga引擎的三个问题）：
// 1. 有多少Saga在跑？成功/失败比例如何？ → Counter
// 2. 每个步骤耗时多少？ → Histogram
// 3. 补偿执行了多少次？补偿本身失败了多少次？ → Counter
//
// Prometheus Server每15秒抓取/metrics端点，配合Grafana可视化。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SagaExecutionsTotal Saga执行总数
	// 标签：outcome（success/failed）
	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersaga_saga_executions_total",
			Help: "Saga执行总数（按终态区分）",
		},
		[]string{"outcome"},
	)

	// SagaStepDuration Saga步骤耗时（秒）
	// 标签：step（ReservePromoUse/ReserveInventory/ChargeUserBalance/FinalizeOrder）、status（completed/failed）
	SagaStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordersaga_saga_step_duration_seconds",
			Help:    "Saga单步执行耗时",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step", "status"},
	)

	// CompensationsTotal 补偿执行总数
	// 标签：step、status（completed/failed）
	// 补偿失败需要人工介入，是最重要的告警指标
	CompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersaga_compensations_total",
			Help: "补偿操作执行总数（按步骤和结果区分）",
		},
		[]string{"step", "status"},
	)

	// OrdersCreatedTotal 订单创建总数
	// 标签：status（CONFIRMED/FAILED）
	OrdersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordersaga_orders_created_total",
			Help: "订单创建总数（按终态区分）",
		},
		[]string{"status"},
	)
)

// ObserveSagaOutcome 记录一次Saga终态
func ObserveSagaOutcome(success bool) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	SagaExecutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStep 记录一次步骤执行
func ObserveStep(step string, start time.Time, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	SagaStepDuration.WithLabelValues(step, status).Observe(time.Since(start).Seconds())
}

// ObserveCompensation 记录一次补偿执行
func ObserveCompensation(step string, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	CompensationsTotal.WithLabelValues(step, status).Inc()
}
