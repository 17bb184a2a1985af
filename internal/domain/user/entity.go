package user

import (
	"github.com/shopspring/decimal"
)

// User 用户实体
// 设计说明:
// 1. Balance使用decimal定点数(数据库decimal(15,2))，金额禁止使用浮点数
// 2. 余额永不为负——由仓储层的条件扣减保证(WHERE balance >= ?)
type User struct {
	ID      uint
	Name    string
	Balance decimal.Decimal // 账户余额
}

// CanAfford 余额是否足以支付指定金额
func (u *User) CanAfford(amount decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(amount)
}
