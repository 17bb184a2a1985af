package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/ordersaga/internal/domain/payment"
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
)

// paymentRepository 支付流水仓储实现(MySQL)
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付流水仓储
func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &paymentRepository{db: db}
}

// Create 写入支付流水
func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := &PaymentModel{
		PaymentNo: p.PaymentNo,
		OrderID:   p.OrderID,
		UserID:    p.UserID,
		Amount:    p.Amount,
		Status:    string(p.Status),
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.New(apperrors.ErrCodeInvalidParams, "支付流水号冲突，请重试")
		}
		return apperrors.Wrap(err, "写入支付流水失败")
	}

	p.ID = model.ID
	return nil
}

// MarkRefunded 将匹配的CHARGED流水置为REFUNDED
// 没有匹配记录时不报错:补偿可能在流水落盘前触发
func (r *paymentRepository) MarkRefunded(ctx context.Context, orderID, userID uint) error {
	result := getDB(ctx, r.db).Model(&PaymentModel{}).
		Where("order_id = ? AND user_id = ? AND status = ?", orderID, userID, string(payment.StatusCharged)).
		Update("status", string(payment.StatusRefunded))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新支付流水失败")
	}

	return nil
}
