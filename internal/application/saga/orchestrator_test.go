package saga

import (
	"context"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/ordersaga/internal/domain/inventory"
	"github.com/xiebiao/ordersaga/internal/domain/order"
	"github.com/xiebiao/ordersaga/internal/domain/payment"
	"github.com/xiebiao/ordersaga/internal/domain/promo"
	domsaga "github.com/xiebiao/ordersaga/internal/domain/saga"
	"github.com/xiebiao/ordersaga/internal/domain/user"
)

// 说明:编排器测试使用内存仓储替代MySQL
//
// 所有领域服务和编排器都只依赖domain层接口，内存实现配合直通
// 事务管理器即可完整驱动Saga。服务的失败路径(余额不足/库存不足)
// 都在任何写操作之前返回，因此直通事务不会留下半提交状态。

// ========================================
// 内存仓储实现
// ========================================

type memUsers struct {
	users map[uint]*user.User
}

func (m *memUsers) FindByID(_ context.Context, id uint) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(_ context.Context) ([]*user.User, error) {
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) DebitBalance(_ context.Context, id uint, amount decimal.Decimal) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	if u.Balance.LessThan(amount) {
		return user.ErrInsufficientBalance
	}
	u.Balance = u.Balance.Sub(amount)
	return nil
}

func (m *memUsers) CreditBalance(_ context.Context, id uint, amount decimal.Decimal) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Balance = u.Balance.Add(amount)
	return nil
}

type memItems struct {
	items map[string]*inventory.Item
}

func (m *memItems) FindBySKU(_ context.Context, sku string) (*inventory.Item, error) {
	it, ok := m.items[sku]
	if !ok {
		return nil, inventory.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memItems) List(_ context.Context) ([]*inventory.Item, error) {
	out := make([]*inventory.Item, 0, len(m.items))
	for _, it := range m.items {
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (m *memItems) DeductStock(_ context.Context, sku string, qty int) error {
	it, ok := m.items[sku]
	if !ok {
		return inventory.ErrItemNotFound
	}
	if it.OnHand < qty {
		return inventory.ErrInsufficientStock
	}
	it.OnHand -= qty
	return nil
}

func (m *memItems) RestoreStock(_ context.Context, sku string, qty int) error {
	it, ok := m.items[sku]
	if !ok {
		return inventory.ErrItemNotFound
	}
	it.OnHand += qty
	return nil
}

type memReservations struct {
	list []*inventory.Reservation
}

func (m *memReservations) Create(_ context.Context, r *inventory.Reservation) error {
	r.ID = uint(len(m.list) + 1)
	m.list = append(m.list, r)
	return nil
}

func (m *memReservations) Release(_ context.Context, orderID uint, sku string) error {
	for _, r := range m.list {
		if r.OrderID == orderID && r.SKU == sku && r.Status == inventory.ReservationReserved {
			r.Status = inventory.ReservationReleased
		}
	}
	return nil
}

type memPromos struct {
	codes map[string]*promo.Code
}

func (m *memPromos) FindByCode(_ context.Context, code string) (*promo.Code, error) {
	c, ok := m.codes[code]
	if !ok {
		return nil, promo.ErrPromoNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memPromos) DecrementUses(_ context.Context, code string) error {
	c, ok := m.codes[code]
	if !ok {
		return promo.ErrPromoNotFound
	}
	if c.RemainingUses < 1 {
		return promo.ErrPromoExhausted
	}
	c.RemainingUses--
	return nil
}

func (m *memPromos) IncrementUses(_ context.Context, code string) error {
	c, ok := m.codes[code]
	if !ok {
		return promo.ErrPromoNotFound
	}
	c.RemainingUses++
	return nil
}

type memApplications struct {
	list []*promo.Application
}

func (m *memApplications) Create(_ context.Context, a *promo.Application) error {
	a.ID = uint(len(m.list) + 1)
	m.list = append(m.list, a)
	return nil
}

func (m *memApplications) Cancel(_ context.Context, orderID uint, code string) error {
	for _, a := range m.list {
		if a.OrderID == orderID && a.Code == code && a.Status == promo.ApplicationApplied {
			a.Status = promo.ApplicationCancelled
		}
	}
	return nil
}

type memPayments struct {
	list []*payment.Payment
}

func (m *memPayments) Create(_ context.Context, p *payment.Payment) error {
	p.ID = uint(len(m.list) + 1)
	m.list = append(m.list, p)
	return nil
}

func (m *memPayments) MarkRefunded(_ context.Context, orderID, userID uint) error {
	for _, p := range m.list {
		if p.OrderID == orderID && p.UserID == userID && p.Status == payment.StatusCharged {
			p.Status = payment.StatusRefunded
		}
	}
	return nil
}

type memOrders struct {
	orders map[uint]*order.Order
	nextID uint
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.nextID++
	o.ID = m.nextID
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id uint) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id uint, target order.Status) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	if o.Status != order.StatusPending {
		return order.ErrInvalidStatusTransition
	}
	o.Status = target
	return nil
}

type memRecords struct {
	records []*domsaga.StepRecord
}

func (m *memRecords) Create(_ context.Context, r *domsaga.StepRecord) error {
	r.ID = uint(len(m.records) + 1)
	m.records = append(m.records, r)
	return nil
}

func (m *memRecords) Update(_ context.Context, r *domsaga.StepRecord) error {
	for i, rec := range m.records {
		if rec.ID == r.ID {
			cp := *r
			m.records[i] = &cp
			return nil
		}
	}
	return nil
}

func (m *memRecords) ListByOrderID(_ context.Context, orderID uint) ([]*domsaga.StepRecord, error) {
	out := make([]*domsaga.StepRecord, 0)
	for _, r := range m.records {
		if r.OrderID == orderID {
			cp := *r
			out = append(out, &cp)
		}
	}
	// ID是插入序,与started_at升序一致
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// passTx 直通事务管理器:直接执行fn,不做任何事务包装
type passTx struct{}

func (passTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ========================================
// 测试环境组装
// ========================================

type world struct {
	users        *memUsers
	items        *memItems
	promos       *memPromos
	reservations *memReservations
	applications *memApplications
	payments     *memPayments
	orders       *memOrders
	records      *memRecords
	orch         *Orchestrator
}

// newWorld 构建演示数据集上的完整Saga环境
// 数据与cmd/seed一致:user1余额1000、user2余额50、
// item1现货10、item2现货5(单价都是100)、DISCOUNT10减10
func newWorld() *world {
	w := &world{
		users: &memUsers{users: map[uint]*user.User{
			1: {ID: 1, Name: "user1", Balance: decimal.NewFromInt(1000)},
			2: {ID: 2, Name: "user2", Balance: decimal.NewFromInt(50)},
		}},
		items: &memItems{items: map[string]*inventory.Item{
			"item1": {SKU: "item1", Name: "演示商品一", Price: decimal.NewFromInt(100), OnHand: 10},
			"item2": {SKU: "item2", Name: "演示商品二", Price: decimal.NewFromInt(100), OnHand: 5},
		}},
		promos: &memPromos{codes: map[string]*promo.Code{
			"DISCOUNT10": {Code: "DISCOUNT10", RemainingUses: 5, DiscountAmount: decimal.NewFromInt(10)},
			"ONETIME":    {Code: "ONETIME", RemainingUses: 1, DiscountAmount: decimal.NewFromInt(20)},
			"EXPIRED":    {Code: "EXPIRED", RemainingUses: 0, DiscountAmount: decimal.NewFromInt(15)},
		}},
		reservations: &memReservations{},
		applications: &memApplications{},
		payments:     &memPayments{},
		orders:       &memOrders{orders: map[uint]*order.Order{}},
		records:      &memRecords{},
	}

	w.orch = NewOrchestrator(
		w.orders, w.records, passTx{},
		promo.NewService(w.promos, w.applications),
		inventory.NewService(w.items, w.reservations),
		payment.NewService(w.users, w.payments),
	)
	return w
}

// placeOrder 创建一个PENDING订单(金额按演示数据计算)
func (w *world) placeOrder(t *testing.T, userID uint, sku string, qty int, promoCode string) *order.Order {
	t.Helper()

	item := w.items.items[sku]
	base := item.Price.Mul(decimal.NewFromInt(int64(qty)))
	discount := decimal.Zero
	if promoCode != "" {
		discount = w.promos.codes[promoCode].DiscountAmount
	}

	o := order.NewOrder(userID, sku, qty, promoCode, base, discount)
	require.NoError(t, w.orders.Create(context.Background(), o))
	return o
}

// trail 返回订单审计轨迹的"步骤名:状态"序列
func (w *world) trail(t *testing.T, orderID uint) []string {
	t.Helper()

	records, err := w.records.ListByOrderID(context.Background(), orderID)
	require.NoError(t, err)

	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.StepName + ":" + string(r.Status)
	}
	return out
}

func (w *world) orderStatus(t *testing.T, orderID uint) order.Status {
	t.Helper()
	o, err := w.orders.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	return o.Status
}

// ========================================
// 正向路径
// ========================================

// TestOrchestrator_Success_WithPromo 带促销码的完整成功路径
func TestOrchestrator_Success_WithPromo(t *testing.T) {
	w := newWorld()
	o := w.placeOrder(t, 1, "item1", 2, "DISCOUNT10")

	ok, err := w.orch.Execute(context.Background(), o.ID, "")
	require.NoError(t, err)
	assert.True(t, ok)

	// 订单CONFIRMED
	assert.Equal(t, order.StatusConfirmed, w.orderStatus(t, o.ID))

	// 资源全部提交:余额1000-190=810,现货10-2=8,次数5-1=4
	assert.Equal(t, "810", w.users.users[1].Balance.String())
	assert.Equal(t, 8, w.items.items["item1"].OnHand)
	assert.Equal(t, 4, w.promos.codes["DISCOUNT10"].RemainingUses)

	// 审计轨迹:4个步骤全部COMPLETED,无补偿记录
	assert.Equal(t, []string{
		"ReservePromoUse:COMPLETED",
		"ReserveInventory:COMPLETED",
		"ChargeUserBalance:COMPLETED",
		"FinalizeOrder:COMPLETED",
	}, w.trail(t, o.ID))

	// 副作用记录全部处于占用状态
	require.Len(t, w.applications.list, 1)
	assert.Equal(t, promo.ApplicationApplied, w.applications.list[0].Status)
	require.Len(t, w.reservations.list, 1)
	assert.Equal(t, inventory.ReservationReserved, w.reservations.list[0].Status)
	require.Len(t, w.payments.list, 1)
	assert.Equal(t, payment.StatusCharged, w.payments.list[0].Status)
	assert.Equal(t, "190", w.payments.list[0].Amount.String())
}

// TestOrchestrator_Success_WithoutPromo 无促销码时跳过促销码步骤
func TestOrchestrator_Success_WithoutPromo(t *testing.T) {
	w := newWorld()
	o := w.placeOrder(t, 1, "item1", 1, "")

	ok, err := w.orch.Execute(context.Background(), o.ID, "")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, order.StatusConfirmed, w.orderStatus(t, o.ID))
	assert.Equal(t, "900", w.users.users[1].Balance.String())

	// 轨迹不含ReservePromoUse
	assert.Equal(t, []string{
		"ReserveInventory:COMPLETED",
		"ChargeUserBalance:COMPLETED",
		"FinalizeOrder:COMPLETED",
	}, w.trail(t, o.ID))
	assert.Empty(t, w.applications.list)
}

// ========================================
// 失败与补偿
// ========================================

// TestOrchestrator_InsufficientBalance 余额不足在扣款步骤失败
func TestOrchestrator_InsufficientBalance(t *testing.T) {
	w := newWorld()
	// user2余额50,买一件100的商品必然失败
	o := w.placeOrder(t, 2, "item1", 1, "")

	ok, err := w.orch.Execute(context.Background(), o.ID, "")
	require.NoError(t, err, "业务失败不是错误,Saga应正常到达FAILED终态")
	assert.False(t, ok)

	// 订单FAILED
	assert.Equal(t, order.StatusFailed, w.orderStatus(t, o.ID))

	// 资源守恒:余额未动,现货已恢复
	assert.Equal(t, "50", w.users.users[2].Balance.String())
	assert.Equal(t, 10, w.items.items["item1"].OnHand)

	// 轨迹:库存成功→扣款失败→库存补偿
	assert.Equal(t, []string{
		"ReserveInventory:COMPLETED",
		"ChargeUserBalance:FAILED",
		"Compensate_ReserveInventory:COMPLETED",
	}, w.trail(t, o.ID))

	// 失败记录携带错误信息
	records, _ := w.records.ListByOrderID(context.Background(), o.ID)
	assert.Contains(t, records[1].Error, "余额不足")
	require.NotNil(t, records[1].FinishedAt)

	// 预留记录已释放,无支付流水
	require.Len(t, w.reservations.list, 1)
	assert.Equal(t, inventory.ReservationReleased, w.reservations.list[0].Status)
	assert.Empty(t, w.payments.list)
}

// TestOrchestrator_InsufficientStock 现货不足在库存步骤失败
func TestOrchestrator_InsufficientStock(t *testing.T) {
	w := newWorld()
	// item2现货5,购买6件必然失败;带促销码验证促销码被补偿
	o := w.placeOrder(t, 1, "item2", 6, "DISCOUNT10")

	ok, err := w.orch.Execute(context.Background(), o.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, order.StatusFailed, w.orderStatus(t, o.ID))

	// 资源守恒:促销码次数归还,现货和余额未动
	assert.Equal(t, 5, w.promos.codes["DISCOUNT10"].RemainingUses)
	assert.Equal(t, 5, w.items.items["item2"].OnHand)
	assert.Equal(t, "1000", w.users.users[1].Balance.String())

	assert.Equal(t, []string{
		"ReservePromoUse:COMPLETED",
		"ReserveInventory:FAILED",
		"Compensate_ReservePromoUse:COMPLETED",
	}, w.trail(t, o.ID))

	// 应用记录已取消
	require.Len(t, w.applications.list, 1)
	assert.Equal(t, promo.ApplicationCancelled, w.applications.list[0].Status)
}

// TestOrchestrator_ExhaustedPromo 促销码在第一步就已耗尽
// 下单入口会提前拒绝已耗尽的促销码,但并发下其他Saga可能在
// 入口校验之后、本步骤之前用掉最后一次,所以步骤级失败仍可达
func TestOrchestrator_ExhaustedPromo(t *testing.T) {
	w := newWorld()
	o := w.placeOrder(t, 1, "item1", 1, "EXPIRED")

	ok, err := w.orch.Execute(context.Background(), o.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, order.StatusFailed, w.orderStatus(t, o.ID))

	// 第一步失败没有已完成步骤,无补偿记录
	assert.Equal(t, []string{
		"ReservePromoUse:FAILED",
	}, w.trail(t, o.ID))

	// 资源完全未动
	assert.Equal(t, "1000", w.users.users[1].Balance.String())
	assert.Equal(t, 10, w.items.items["item1"].OnHand)
	assert.Equal(t, 0, w.promos.codes["EXPIRED"].RemainingUses)
	assert.Empty(t, w.applications.list)
}

// TestOrchestrator_InjectedFailure_FinalStep 在最后一步注入失败
// 验证:
// 1. 注入失败发生在步骤Execute之前,被注入的步骤没有审计记录
// 2. 此前三个已完成步骤全部按逆序补偿
// 3. 所有资源回到初始值
func TestOrchestrator_InjectedFailure_FinalStep(t *testing.T) {
	w := newWorld()
	o := w.placeOrder(t, 1, "item1", 2, "DISCOUNT10")

	ok, err := w.orch.Execute(context.Background(), o.ID, StepFinalizeOrder)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, order.StatusFailed, w.orderStatus(t, o.ID))

	// 资源守恒
	assert.Equal(t, "1000", w.users.users[1].Balance.String())
	assert.Equal(t, 10, w.items.items["item1"].OnHand)
	assert.Equal(t, 5, w.promos.codes["DISCOUNT10"].RemainingUses)

	// 轨迹:三个正向步骤COMPLETED + 三条逆序补偿记录
	// 注入点FinalizeOrder没有任何记录
	assert.Equal(t, []string{
		"ReservePromoUse:COMPLETED",
		"ReserveInventory:COMPLETED",
		"ChargeUserBalance:COMPLETED",
		"Compensate_ChargeUserBalance:COMPLETED",
		"Compensate_ReserveInventory:COMPLETED",
		"Compensate_ReservePromoUse:COMPLETED",
	}, w.trail(t, o.ID))

	// 副作用记录全部翻转
	assert.Equal(t, promo.ApplicationCancelled, w.applications.list[0].Status)
	assert.Equal(t, inventory.ReservationReleased, w.reservations.list[0].Status)
	assert.Equal(t, payment.StatusRefunded, w.payments.list[0].Status)
}

// TestOrchestrator_InjectedFailure_FirstStep 在第一步注入失败
// 没有已完成步骤,不产生任何补偿记录
func TestOrchestrator_InjectedFailure_FirstStep(t *testing.T) {
	w := newWorld()
	o := w.placeOrder(t, 1, "item1", 1, "DISCOUNT10")

	ok, err := w.orch.Execute(context.Background(), o.ID, StepReservePromoUse)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, order.StatusFailed, w.orderStatus(t, o.ID))
	assert.Empty(t, w.trail(t, o.ID), "注入点之前没有步骤,轨迹应为空")

	// 资源完全未动
	assert.Equal(t, "1000", w.users.users[1].Balance.String())
	assert.Equal(t, 10, w.items.items["item1"].OnHand)
	assert.Equal(t, 5, w.promos.codes["DISCOUNT10"].RemainingUses)
}

// TestOrchestrator_InjectedFailure_MiddleStep 在中间步骤注入失败
func TestOrchestrator_InjectedFailure_MiddleStep(t *testing.T) {
	w := newWorld()
	o := w.placeOrder(t, 1, "item1", 2, "DISCOUNT10")

	ok, err := w.orch.Execute(context.Background(), o.ID, StepChargeUserBalance)
	require.NoError(t, err)
	assert.False(t, ok)

	// 扣款未执行,余额未动;前两步的资源已恢复
	assert.Equal(t, "1000", w.users.users[1].Balance.String())
	assert.Equal(t, 10, w.items.items["item1"].OnHand)
	assert.Equal(t, 5, w.promos.codes["DISCOUNT10"].RemainingUses)

	assert.Equal(t, []string{
		"ReservePromoUse:COMPLETED",
		"ReserveInventory:COMPLETED",
		"Compensate_ReserveInventory:COMPLETED",
		"Compensate_ReservePromoUse:COMPLETED",
	}, w.trail(t, o.ID))
	assert.Empty(t, w.payments.list)
}

// TestOrchestrator_OrderNotFound 订单不存在是致命错误
func TestOrchestrator_OrderNotFound(t *testing.T) {
	w := newWorld()

	ok, err := w.orch.Execute(context.Background(), 999, "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

// TestOrchestrator_TerminalStateNeverReverts 终态订单不可再被推进
func TestOrchestrator_TerminalStateNeverReverts(t *testing.T) {
	w := newWorld()
	o := w.placeOrder(t, 1, "item1", 1, "")

	ok, err := w.orch.Execute(context.Background(), o.ID, "")
	require.NoError(t, err)
	require.True(t, ok)

	// CONFIRMED之后任何状态更新都被守卫拒绝
	err = w.orders.UpdateStatus(context.Background(), o.ID, order.StatusFailed)
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
	assert.Equal(t, order.StatusConfirmed, w.orderStatus(t, o.ID))
}
