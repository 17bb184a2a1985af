package dto

import "time"

// CreateOrderRequest HTTP下单请求
// validator tag说明:
// - required: 必填字段
// - min/max: 数值范围校验
// - fail_at_step: 故障注入字段，与某步骤同名时在该步骤前人工失败
type CreateOrderRequest struct {
	UserID     uint   `json:"user_id" binding:"required" example:"1"`
	SKU        string `json:"sku" binding:"required,max=50" example:"item1"`
	Qty        int    `json:"qty" binding:"required,min=1,max=999" example:"2"`
	PromoCode  string `json:"promo_code" binding:"omitempty,max=50" example:"DISCOUNT10"`
	FailAtStep string `json:"fail_at_step" binding:"omitempty,oneof=ReservePromoUse ReserveInventory ChargeUserBalance FinalizeOrder" example:"ChargeUserBalance"`
}

// StepResponse 审计记录响应项
type StepResponse struct {
	StepName   string     `json:"step_name" example:"ReserveInventory"`
	Status     string     `json:"status" example:"COMPLETED"`
	Error      string     `json:"error,omitempty" example:"余额不足"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// OrderResponse HTTP订单结果响应
// 下单和查询共用:订单终态 + 完整审计轨迹
type OrderResponse struct {
	OrderID        uint           `json:"order_id" example:"1"`
	OrderNo        string         `json:"order_no" example:"ORD1699248000123456"`
	UserID         uint           `json:"user_id" example:"1"`
	SKU            string         `json:"sku" example:"item1"`
	Qty            int            `json:"qty" example:"2"`
	PromoCode      string         `json:"promo_code,omitempty" example:"DISCOUNT10"`
	BaseAmount     string         `json:"base_amount" example:"200.00"`
	DiscountAmount string         `json:"discount_amount" example:"10.00"`
	FinalAmount    string         `json:"final_amount" example:"190.00"`
	Status         string         `json:"status" example:"CONFIRMED"`
	Success        bool           `json:"success" example:"true"`
	CreatedAt      time.Time      `json:"created_at"`
	Steps          []StepResponse `json:"steps"`
}
