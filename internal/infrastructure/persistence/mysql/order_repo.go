package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ordersaga/internal/domain/order"
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
)

// orderRepository 订单仓储实现(MySQL)
// 要点:状态推进使用带守卫的UPDATE(WHERE status = 'PENDING')，
// 终态在数据库层面不可回退
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单(初始PENDING)
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		// order_no有唯一索引,时间戳+随机数在极端情况下可能撞号
		if isDuplicateError(err) {
			return apperrors.New(apperrors.ErrCodeInvalidParams, "订单号冲突，请重试")
		}
		return apperrors.Wrap(err, "创建订单失败")
	}

	// 回填自增ID
	o.ID = model.ID
	return nil
}

// FindByID 根据ID查找订单
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	err := getDB(ctx, r.db).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}

	return toOrderEntity(&model), nil
}

// UpdateStatus 推进订单状态
// UPDATE orders SET status = ? WHERE id = ? AND status = 'PENDING'
// 影响行数为0时需要区分"订单不存在"和"订单已到终态"
func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, target order.Status) error {
	db := getDB(ctx, r.db)

	result := db.Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(order.StatusPending)).
		Update("status", string(target))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单状态失败")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "更新订单状态失败")
		}
		if count == 0 {
			return order.ErrOrderNotFound
		}
		return order.ErrInvalidStatusTransition
	}

	return nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toOrderModel 领域实体 → GORM模型
func toOrderModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:             o.ID,
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		SKU:            o.SKU,
		Qty:            o.Qty,
		PromoCode:      o.PromoCode,
		BaseAmount:     o.BaseAmount,
		DiscountAmount: o.DiscountAmount,
		FinalAmount:    o.FinalAmount,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
	}
}

// toOrderEntity GORM模型 → 领域实体
func toOrderEntity(model *OrderModel) *order.Order {
	return &order.Order{
		ID:             model.ID,
		OrderNo:        model.OrderNo,
		UserID:         model.UserID,
		SKU:            model.SKU,
		Qty:            model.Qty,
		PromoCode:      model.PromoCode,
		BaseAmount:     model.BaseAmount,
		DiscountAmount: model.DiscountAmount,
		FinalAmount:    model.FinalAmount,
		Status:         order.Status(model.Status),
		CreatedAt:      model.CreatedAt,
	}
}
