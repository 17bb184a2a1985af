package mysql

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xiebiao/ordersaga/internal/domain/user"
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
)

// userRepository 用户仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/user/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 余额扣减使用条件UPDATE(而非SELECT再UPDATE)，并发下不丢更新
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
// 注意:返回的是domain层的接口类型，不是具体类型(依赖倒置)
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// FindByID 根据ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var model UserModel
	err := getDB(ctx, r.db).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "查询用户失败")
	}

	return toUserEntity(&model), nil
}

// List 查询全部用户
func (r *userRepository) List(ctx context.Context) ([]*user.User, error) {
	var models []UserModel
	if err := getDB(ctx, r.db).Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询用户列表失败")
	}

	users := make([]*user.User, len(models))
	for i := range models {
		users[i] = toUserEntity(&models[i])
	}
	return users, nil
}

// DebitBalance 扣减余额(原子操作)
// 要点:
// 1. WHERE balance >= amount把余额检查和扣减合并成一条语句，
//    余额不足时影响行数为0，不会出现负余额
// 2. RowsAffected == 0时需要区分"用户不存在"和"余额不足"
func (r *userRepository) DebitBalance(ctx context.Context, id uint, amount decimal.Decimal) error {
	db := getDB(ctx, r.db)

	result := db.Model(&UserModel{}).
		Where("id = ? AND balance >= ?", id, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "扣减余额失败")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&UserModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "扣减余额失败")
		}
		if count == 0 {
			return user.ErrUserNotFound
		}
		return user.ErrInsufficientBalance
	}

	return nil
}

// CreditBalance 增加余额(退款补偿用)
func (r *userRepository) CreditBalance(ctx context.Context, id uint, amount decimal.Decimal) error {
	result := getDB(ctx, r.db).Model(&UserModel{}).
		Where("id = ?", id).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "增加余额失败")
	}

	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

// toUserEntity GORM模型 → 领域实体
func toUserEntity(model *UserModel) *user.User {
	return &user.User{
		ID:      model.ID,
		Name:    model.Name,
		Balance: model.Balance,
	}
}
