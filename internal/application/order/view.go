package order

import (
	"context"
	"time"

	"github.com/xiebiao/ordersaga/internal/domain/order"
	domsaga "github.com/xiebiao/ordersaga/internal/domain/saga"
)

// StepView 审计记录展示DTO
type StepView struct {
	StepName   string     `json:"step_name"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// OrderView 订单结果视图：订单终态 + 完整审计轨迹
// 既是HTTP响应DTO，也是Redis缓存的存储结构
type OrderView struct {
	OrderID        uint       `json:"order_id"`
	OrderNo        string     `json:"order_no"`
	UserID         uint       `json:"user_id"`
	SKU            string     `json:"sku"`
	Qty            int        `json:"qty"`
	PromoCode      string     `json:"promo_code,omitempty"`
	BaseAmount     string     `json:"base_amount"`
	DiscountAmount string     `json:"discount_amount"`
	FinalAmount    string     `json:"final_amount"`
	Status         string     `json:"status"`
	Success        bool       `json:"success"`
	CreatedAt      time.Time  `json:"created_at"`
	Steps          []StepView `json:"steps"`
}

// newOrderView 由订单实体和审计轨迹构建视图
// 金额用StringFixed(2)定点格式化，避免JSON数字的浮点表示
func newOrderView(o *order.Order, records []*domsaga.StepRecord) *OrderView {
	steps := make([]StepView, len(records))
	for i, r := range records {
		steps[i] = StepView{
			StepName:   r.StepName,
			Status:     string(r.Status),
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		}
	}

	return &OrderView{
		OrderID:        o.ID,
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		SKU:            o.SKU,
		Qty:            o.Qty,
		PromoCode:      o.PromoCode,
		BaseAmount:     o.BaseAmount.StringFixed(2),
		DiscountAmount: o.DiscountAmount.StringFixed(2),
		FinalAmount:    o.FinalAmount.StringFixed(2),
		Status:         string(o.Status),
		Success:        o.Status == order.StatusConfirmed,
		CreatedAt:      o.CreatedAt,
		Steps:          steps,
	}
}

// OrderCache 订单视图缓存接口(可选依赖，nil时跳过)
// 由infrastructure层的redis.OrderCache实现；缓存读写失败不影响主流程
type OrderCache interface {
	// SaveView 缓存终态订单视图
	SaveView(ctx context.Context, view *OrderView) error

	// GetView 读取缓存的订单视图，未命中返回(nil, nil)
	GetView(ctx context.Context, orderID uint) (*OrderView, error)
}

// EventPublisher 订单事件发布接口(可选依赖，nil时跳过)
// 由pkg/mq的RabbitMQ Publisher实现；发布失败不影响订单终态
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// OrderEvent 订单终态领域事件
type OrderEvent struct {
	OrderID     uint      `json:"order_id"`
	OrderNo     string    `json:"order_no"`
	UserID      uint      `json:"user_id"`
	SKU         string    `json:"sku"`
	Qty         int       `json:"qty"`
	FinalAmount string    `json:"final_amount"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}
