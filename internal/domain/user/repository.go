package user

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository 用户仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口，infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
// 3. 扣款必须是原子条件更新，防止并发下的余额丢失更新
type Repository interface {
	// FindByID 根据ID查找用户
	FindByID(ctx context.Context, id uint) (*User, error)

	// List 查询全部用户(供下单页面展示)
	List(ctx context.Context) ([]*User, error)

	// DebitBalance 扣减余额(原子操作)
	// 执行: UPDATE users SET balance = balance - ? WHERE id = ? AND balance >= ?
	// 余额不足时返回ErrInsufficientBalance
	DebitBalance(ctx context.Context, id uint, amount decimal.Decimal) error

	// CreditBalance 增加余额(退款补偿用)
	CreditBalance(ctx context.Context, id uint, amount decimal.Decimal) error
}
