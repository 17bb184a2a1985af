package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ordersaga/internal/domain/promo"
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
)

// promoRepository 促销码仓储实现(MySQL)
// 要点:次数扣减使用条件UPDATE(WHERE remaining_uses >= 1)，
// 多个订单并发使用同一促销码时不会超用
type promoRepository struct {
	db *gorm.DB
}

// NewPromoRepository 创建促销码仓储
func NewPromoRepository(db *gorm.DB) promo.Repository {
	return &promoRepository{db: db}
}

// FindByCode 根据促销码查找
func (r *promoRepository) FindByCode(ctx context.Context, code string) (*promo.Code, error) {
	var model PromoCodeModel
	err := getDB(ctx, r.db).Where("code = ?", code).First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, promo.ErrPromoNotFound
		}
		return nil, apperrors.Wrap(err, "查询促销码失败")
	}

	return &promo.Code{
		Code:           model.Code,
		RemainingUses:  model.RemainingUses,
		DiscountAmount: model.DiscountAmount,
	}, nil
}

// DecrementUses 扣减一次使用次数(原子操作)
// UPDATE promo_codes SET remaining_uses = remaining_uses - 1
// WHERE code = ? AND remaining_uses >= 1
func (r *promoRepository) DecrementUses(ctx context.Context, code string) error {
	db := getDB(ctx, r.db)

	result := db.Model(&PromoCodeModel{}).
		Where("code = ? AND remaining_uses >= 1", code).
		UpdateColumn("remaining_uses", gorm.Expr("remaining_uses - 1"))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "扣减促销码次数失败")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&PromoCodeModel{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "扣减促销码次数失败")
		}
		if count == 0 {
			return promo.ErrPromoNotFound
		}
		return promo.ErrPromoExhausted
	}

	return nil
}

// IncrementUses 归还一次使用次数(释放补偿用)
func (r *promoRepository) IncrementUses(ctx context.Context, code string) error {
	result := getDB(ctx, r.db).Model(&PromoCodeModel{}).
		Where("code = ?", code).
		UpdateColumn("remaining_uses", gorm.Expr("remaining_uses + 1"))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "归还促销码次数失败")
	}

	if result.RowsAffected == 0 {
		return promo.ErrPromoNotFound
	}

	return nil
}

// applicationRepository 促销码应用记录仓储实现(MySQL)
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository 创建促销码应用记录仓储
func NewApplicationRepository(db *gorm.DB) promo.ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create 写入应用记录
func (r *applicationRepository) Create(ctx context.Context, a *promo.Application) error {
	model := &PromoApplicationModel{
		OrderID: a.OrderID,
		Code:    a.Code,
		Status:  string(a.Status),
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "写入促销码应用记录失败")
	}

	a.ID = model.ID
	return nil
}

// Cancel 将匹配的APPLIED记录置为CANCELLED
// 没有匹配记录时不报错:补偿可能在应用记录落盘前触发
func (r *applicationRepository) Cancel(ctx context.Context, orderID uint, code string) error {
	result := getDB(ctx, r.db).Model(&PromoApplicationModel{}).
		Where("order_id = ? AND code = ? AND status = ?", orderID, code, string(promo.ApplicationApplied)).
		Update("status", string(promo.ApplicationCancelled))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "取消促销码应用记录失败")
	}

	return nil
}
