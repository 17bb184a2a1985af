package promo

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCodes 内存促销码仓储
type fakeCodes struct {
	codes map[string]*Code
}

func (f *fakeCodes) FindByCode(_ context.Context, code string) (*Code, error) {
	c, ok := f.codes[code]
	if !ok {
		return nil, ErrPromoNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCodes) DecrementUses(_ context.Context, code string) error {
	c, ok := f.codes[code]
	if !ok {
		return ErrPromoNotFound
	}
	if c.RemainingUses < 1 {
		return ErrPromoExhausted
	}
	c.RemainingUses--
	return nil
}

func (f *fakeCodes) IncrementUses(_ context.Context, code string) error {
	c, ok := f.codes[code]
	if !ok {
		return ErrPromoNotFound
	}
	c.RemainingUses++
	return nil
}

// fakeApplications 内存应用记录仓储
type fakeApplications struct {
	list []*Application
}

func (f *fakeApplications) Create(_ context.Context, a *Application) error {
	a.ID = uint(len(f.list) + 1)
	f.list = append(f.list, a)
	return nil
}

func (f *fakeApplications) Cancel(_ context.Context, orderID uint, code string) error {
	for _, a := range f.list {
		if a.OrderID == orderID && a.Code == code && a.Status == ApplicationApplied {
			a.Status = ApplicationCancelled
		}
	}
	return nil
}

func newFixture() (*fakeCodes, *fakeApplications, Service) {
	codes := &fakeCodes{codes: map[string]*Code{
		"DISCOUNT10": {Code: "DISCOUNT10", RemainingUses: 5, DiscountAmount: decimal.NewFromInt(10)},
		"EXPIRED":    {Code: "EXPIRED", RemainingUses: 0, DiscountAmount: decimal.NewFromInt(15)},
	}}
	applications := &fakeApplications{}
	return codes, applications, NewService(codes, applications)
}

// TestService_CalculateDiscount 减免金额计算(纯读,无副作用)
func TestService_CalculateDiscount(t *testing.T) {
	base := decimal.NewFromInt(200)

	t.Run("有效促销码返回减免金额", func(t *testing.T) {
		codes, _, svc := newFixture()

		discount, err := svc.CalculateDiscount(context.Background(), "DISCOUNT10", base)
		require.NoError(t, err)
		assert.Equal(t, "10", discount.String())
		assert.Equal(t, 5, codes.codes["DISCOUNT10"].RemainingUses, "计算不消耗次数")
	})

	t.Run("空促销码返回0", func(t *testing.T) {
		_, _, svc := newFixture()

		discount, err := svc.CalculateDiscount(context.Background(), "", base)
		require.NoError(t, err)
		assert.True(t, discount.IsZero())
	})

	t.Run("不存在的促销码返回0", func(t *testing.T) {
		_, _, svc := newFixture()

		discount, err := svc.CalculateDiscount(context.Background(), "NOPE", base)
		require.NoError(t, err)
		assert.True(t, discount.IsZero())
	})

	t.Run("已耗尽的促销码返回0", func(t *testing.T) {
		_, _, svc := newFixture()

		discount, err := svc.CalculateDiscount(context.Background(), "EXPIRED", base)
		require.NoError(t, err)
		assert.True(t, discount.IsZero())
	})
}

// TestService_ReserveUse 占用促销码使用次数
func TestService_ReserveUse(t *testing.T) {
	t.Run("占用成功扣减次数并写应用记录", func(t *testing.T) {
		codes, applications, svc := newFixture()

		err := svc.ReserveUse(context.Background(), 1, "DISCOUNT10")
		require.NoError(t, err)

		assert.Equal(t, 4, codes.codes["DISCOUNT10"].RemainingUses)
		require.Len(t, applications.list, 1)
		assert.Equal(t, uint(1), applications.list[0].OrderID)
		assert.Equal(t, ApplicationApplied, applications.list[0].Status)
	})

	t.Run("已耗尽的促销码占用失败", func(t *testing.T) {
		_, applications, svc := newFixture()

		err := svc.ReserveUse(context.Background(), 1, "EXPIRED")
		assert.ErrorIs(t, err, ErrPromoExhausted)
		assert.Empty(t, applications.list)
	})

	t.Run("不存在的促销码占用失败", func(t *testing.T) {
		_, _, svc := newFixture()

		err := svc.ReserveUse(context.Background(), 1, "NOPE")
		assert.ErrorIs(t, err, ErrPromoNotFound)
	})
}

// TestService_ReleaseUse 归还促销码使用次数(补偿)
func TestService_ReleaseUse(t *testing.T) {
	t.Run("归还次数并取消应用记录", func(t *testing.T) {
		codes, applications, svc := newFixture()
		require.NoError(t, svc.ReserveUse(context.Background(), 1, "DISCOUNT10"))

		err := svc.ReleaseUse(context.Background(), 1, "DISCOUNT10")
		require.NoError(t, err)

		assert.Equal(t, 5, codes.codes["DISCOUNT10"].RemainingUses)
		assert.Equal(t, ApplicationCancelled, applications.list[0].Status)
	})

	t.Run("促销码不存在时补偿是no-op", func(t *testing.T) {
		_, _, svc := newFixture()

		err := svc.ReleaseUse(context.Background(), 1, "NOPE")
		assert.NoError(t, err, "孤儿补偿必须可以安全重放")
	})
}
