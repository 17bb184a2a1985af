package inventory

import (
	"github.com/shopspring/decimal"
)

// Item 库存商品实体
// 设计说明:
// 1. SKU是业务主键
// 2. Price使用decimal定点数(数据库decimal(15,2))
// 3. OnHand永不为负——由仓储层的条件扣减保证(WHERE on_hand >= ?)
type Item struct {
	SKU    string
	Name   string
	Price  decimal.Decimal // 单价
	OnHand int             // 现货数量
}

// HasStock 现货是否足够
func (i *Item) HasStock(qty int) bool {
	return i.OnHand >= qty
}

// ReservationStatus 库存预留状态
type ReservationStatus string

const (
	ReservationReserved ReservationStatus = "RESERVED" // 已预留
	ReservationReleased ReservationStatus = "RELEASED" // 已释放(补偿)
)

// Reservation 库存预留记录
// 记录某订单对某SKU的扣减，补偿时据此回滚
// 不变量：同一(order, sku)同时最多存在一条RESERVED记录
type Reservation struct {
	ID      uint
	OrderID uint
	SKU     string
	Qty     int
	Status  ReservationStatus
}
