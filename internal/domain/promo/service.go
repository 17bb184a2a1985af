package promo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Service 促销码领域服务接口
// CalculateDiscount是纯读操作，供下单入口计算金额；
// ReserveUse/ReleaseUse是Saga的正向/补偿操作
type Service interface {
	// CalculateDiscount 计算减免金额(无副作用)
	// 促销码为空、不存在或已耗尽时返回0
	CalculateDiscount(ctx context.Context, code string, baseAmount decimal.Decimal) (decimal.Decimal, error)

	// ReserveUse 为订单占用一次促销码使用
	// 促销码不存在或已耗尽时返回错误；扣减+应用记录必须在同一事务中
	ReserveUse(ctx context.Context, orderID uint, code string) error

	// ReleaseUse 归还订单占用的促销码使用(补偿操作)
	// 促销码不存在时直接返回nil(容忍孤儿补偿)
	ReleaseUse(ctx context.Context, orderID uint, code string) error
}

type service struct {
	codes        Repository
	applications ApplicationRepository
}

// NewService 创建促销码领域服务
func NewService(codes Repository, applications ApplicationRepository) Service {
	return &service{codes: codes, applications: applications}
}

// CalculateDiscount 计算减免金额
func (s *service) CalculateDiscount(ctx context.Context, code string, baseAmount decimal.Decimal) (decimal.Decimal, error) {
	if code == "" {
		return decimal.Zero, nil
	}

	promo, err := s.codes.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrPromoNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	if !promo.Usable() {
		return decimal.Zero, nil
	}

	return promo.DiscountAmount, nil
}

// ReserveUse 为订单占用一次促销码使用
func (s *service) ReserveUse(ctx context.Context, orderID uint, code string) error {
	// 1. 确认促销码存在且可用(区分"不存在"和"已耗尽")
	promo, err := s.codes.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if !promo.Usable() {
		return ErrPromoExhausted
	}

	// 2. 原子扣减使用次数
	if err := s.codes.DecrementUses(ctx, code); err != nil {
		return err
	}

	// 3. 写入应用记录(与扣减同事务)
	return s.applications.Create(ctx, &Application{
		OrderID: orderID,
		Code:    code,
		Status:  ApplicationApplied,
	})
}

// ReleaseUse 归还订单占用的促销码使用
func (s *service) ReleaseUse(ctx context.Context, orderID uint, code string) error {
	// 促销码不存在 → no-op(孤儿补偿不报错)
	if _, err := s.codes.FindByCode(ctx, code); err != nil {
		if errors.Is(err, ErrPromoNotFound) {
			return nil
		}
		return err
	}

	if err := s.codes.IncrementUses(ctx, code); err != nil {
		return err
	}

	return s.applications.Cancel(ctx, orderID, code)
}
