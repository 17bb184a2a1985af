package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/ordersaga/internal/domain/user"
)

// Service 计费领域服务接口
// Charge是Saga的正向扣款步骤，Refund是对应的补偿
type Service interface {
	// Charge 从用户余额扣款并记录支付流水
	// 用户不存在或余额不足时返回错误；扣款+流水必须在同一事务中
	Charge(ctx context.Context, orderID, userID uint, amount decimal.Decimal) error

	// Refund 退还扣款(补偿操作)
	// 用户不存在时直接返回nil(容忍孤儿补偿)
	Refund(ctx context.Context, orderID, userID uint, amount decimal.Decimal) error
}

type service struct {
	users    user.Repository
	payments Repository
}

// NewService 创建计费领域服务
func NewService(users user.Repository, payments Repository) Service {
	return &service{users: users, payments: payments}
}

// Charge 从用户余额扣款
func (s *service) Charge(ctx context.Context, orderID, userID uint, amount decimal.Decimal) error {
	// 1. 确认用户存在且余额充足(区分"不存在"和"余额不足")
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.CanAfford(amount) {
		return user.ErrInsufficientBalance
	}

	// 2. 原子扣减余额
	// 要点:真正的防丢失更新由条件UPDATE保证，步骤1只为友好报错
	if err := s.users.DebitBalance(ctx, userID, amount); err != nil {
		return err
	}

	// 3. 写入支付流水(与扣款同事务)
	return s.payments.Create(ctx, &Payment{
		PaymentNo: GeneratePaymentNo(),
		OrderID:   orderID,
		UserID:    userID,
		Amount:    amount,
		Status:    StatusCharged,
	})
}

// Refund 退还扣款
func (s *service) Refund(ctx context.Context, orderID, userID uint, amount decimal.Decimal) error {
	// 用户不存在 → no-op(孤儿补偿不报错)
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil
		}
		return err
	}

	if err := s.users.CreditBalance(ctx, userID, amount); err != nil {
		return err
	}

	return s.payments.MarkRefunded(ctx, orderID, userID)
}
