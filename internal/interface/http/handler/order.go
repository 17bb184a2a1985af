package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/ordersaga/internal/application/order"
	"github.com/xiebiao/ordersaga/internal/interface/http/dto"
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
	"github.com/xiebiao/ordersaga/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	createOrderUseCase *apporder.CreateOrderUseCase
	getOrderUseCase    *apporder.GetOrderUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(createOrderUseCase *apporder.CreateOrderUseCase, getOrderUseCase *apporder.GetOrderUseCase) *OrderHandler {
	return &OrderHandler{
		createOrderUseCase: createOrderUseCase,
		getOrderUseCase:    getOrderUseCase,
	}
}

// CreateOrder 创建订单
// @Summary      创建订单
// @Description  下单并同步执行Saga(促销码预留→库存预留→余额扣款→订单确认)，任一步骤失败则逆序补偿
// @Tags         订单模块
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=dto.OrderResponse} "订单到达终态(CONFIRMED或FAILED均返回200,看success字段)"
// @Failure      400 {object} response.Response "参数错误/促销码耗尽"
// @Failure      404 {object} response.Response "用户或商品不存在"
// @Router       /orders [post]
//
// 说明:下单是同步流程——响应返回时订单必定已到终态。
// 资源不足导致的业务失败不是HTTP错误:订单以FAILED终态落盘,
// 补偿已执行,响应200并携带完整审计轨迹。
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	// 2. 调用应用层用例
	view, err := h.createOrderUseCase.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		UserID:     req.UserID,
		SKU:        req.SKU,
		Qty:        req.Qty,
		PromoCode:  req.PromoCode,
		FailAtStep: req.FailAtStep,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	// 3. 构建HTTP响应
	response.Success(c, toOrderResponse(view))
}

// GetOrder 查询订单结果
// @Summary      查询订单结果
// @Description  返回订单终态和完整审计轨迹(含失败步骤和补偿记录)
// @Tags         订单模块
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "订单ID必须是正整数")
		return
	}

	view, err := h.getOrderUseCase.Execute(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toOrderResponse(view))
}

// toOrderResponse 应用层视图 → HTTP响应DTO
func toOrderResponse(view *apporder.OrderView) *dto.OrderResponse {
	steps := make([]dto.StepResponse, len(view.Steps))
	for i, s := range view.Steps {
		steps[i] = dto.StepResponse{
			StepName:   s.StepName,
			Status:     s.Status,
			Error:      s.Error,
			StartedAt:  s.StartedAt,
			FinishedAt: s.FinishedAt,
		}
	}

	return &dto.OrderResponse{
		OrderID:        view.OrderID,
		OrderNo:        view.OrderNo,
		UserID:         view.UserID,
		SKU:            view.SKU,
		Qty:            view.Qty,
		PromoCode:      view.PromoCode,
		BaseAmount:     view.BaseAmount,
		DiscountAmount: view.DiscountAmount,
		FinalAmount:    view.FinalAmount,
		Status:         view.Status,
		Success:        view.Success,
		CreatedAt:      view.CreatedAt,
		Steps:          steps,
	}
}
