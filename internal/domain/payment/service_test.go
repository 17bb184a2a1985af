package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/ordersaga/internal/domain/user"
)

type fakeUsers struct {
	users map[uint]*user.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uint) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) List(_ context.Context) ([]*user.User, error) {
	out := make([]*user.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsers) DebitBalance(_ context.Context, id uint, amount decimal.Decimal) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	if u.Balance.LessThan(amount) {
		return user.ErrInsufficientBalance
	}
	u.Balance = u.Balance.Sub(amount)
	return nil
}

func (f *fakeUsers) CreditBalance(_ context.Context, id uint, amount decimal.Decimal) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Balance = u.Balance.Add(amount)
	return nil
}

type fakePayments struct {
	list []*Payment
}

func (f *fakePayments) Create(_ context.Context, p *Payment) error {
	p.ID = uint(len(f.list) + 1)
	f.list = append(f.list, p)
	return nil
}

func (f *fakePayments) MarkRefunded(_ context.Context, orderID, userID uint) error {
	for _, p := range f.list {
		if p.OrderID == orderID && p.UserID == userID && p.Status == StatusCharged {
			p.Status = StatusRefunded
		}
	}
	return nil
}

func newFixture() (*fakeUsers, *fakePayments, Service) {
	users := &fakeUsers{users: map[uint]*user.User{
		1: {ID: 1, Name: "user1", Balance: decimal.NewFromInt(1000)},
		2: {ID: 2, Name: "user2", Balance: decimal.NewFromInt(50)},
	}}
	payments := &fakePayments{}
	return users, payments, NewService(users, payments)
}

// TestService_Charge 余额扣款
func TestService_Charge(t *testing.T) {
	amount := decimal.NewFromInt(190)

	t.Run("扣款成功并记录支付流水", func(t *testing.T) {
		users, payments, svc := newFixture()

		err := svc.Charge(context.Background(), 1, 1, amount)
		require.NoError(t, err)

		assert.Equal(t, "810", users.users[1].Balance.String())
		require.Len(t, payments.list, 1)
		assert.Equal(t, StatusCharged, payments.list[0].Status)
		assert.Equal(t, "190", payments.list[0].Amount.String())
		assert.True(t, strings.HasPrefix(payments.list[0].PaymentNo, "PAY"))
	})

	t.Run("余额不足扣款失败", func(t *testing.T) {
		users, payments, svc := newFixture()

		err := svc.Charge(context.Background(), 1, 2, amount)
		assert.ErrorIs(t, err, user.ErrInsufficientBalance)

		assert.Equal(t, "50", users.users[2].Balance.String(), "失败不应扣减余额")
		assert.Empty(t, payments.list)
	})

	t.Run("用户不存在扣款失败", func(t *testing.T) {
		_, _, svc := newFixture()

		err := svc.Charge(context.Background(), 1, 999, amount)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

// TestService_Refund 退还扣款(补偿)
func TestService_Refund(t *testing.T) {
	amount := decimal.NewFromInt(190)

	t.Run("退款恢复余额并翻转流水状态", func(t *testing.T) {
		users, payments, svc := newFixture()
		require.NoError(t, svc.Charge(context.Background(), 1, 1, amount))

		err := svc.Refund(context.Background(), 1, 1, amount)
		require.NoError(t, err)

		assert.Equal(t, "1000", users.users[1].Balance.String())
		assert.Equal(t, StatusRefunded, payments.list[0].Status)
	})

	t.Run("用户不存在时补偿是no-op", func(t *testing.T) {
		_, _, svc := newFixture()

		err := svc.Refund(context.Background(), 1, 999, amount)
		assert.NoError(t, err, "孤儿补偿必须可以安全重放")
	})
}
