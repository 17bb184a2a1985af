package catalog

import (
	"context"

	"github.com/xiebiao/ordersaga/internal/domain/inventory"
	"github.com/xiebiao/ordersaga/internal/domain/user"
)

// UserView 下单页用户展示DTO
type UserView struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// ItemView 下单页商品展示DTO
type ItemView struct {
	SKU    string `json:"sku"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	OnHand int    `json:"on_hand"`
}

// CatalogView 下单页数据:全部用户和商品
type CatalogView struct {
	Users []UserView `json:"users"`
	Items []ItemView `json:"items"`
}

// ListCatalogUseCase 下单页数据查询用例
// 展示当前用户余额和商品现货，方便观察Saga执行前后的资源变化
type ListCatalogUseCase struct {
	users user.Repository
	items inventory.Repository
}

// NewListCatalogUseCase 创建下单页数据查询用例
func NewListCatalogUseCase(users user.Repository, items inventory.Repository) *ListCatalogUseCase {
	return &ListCatalogUseCase{users: users, items: items}
}

// Execute 查询全部用户和商品
func (uc *ListCatalogUseCase) Execute(ctx context.Context) (*CatalogView, error) {
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}

	items, err := uc.items.List(ctx)
	if err != nil {
		return nil, err
	}

	view := &CatalogView{
		Users: make([]UserView, len(users)),
		Items: make([]ItemView, len(items)),
	}
	for i, u := range users {
		view.Users[i] = UserView{
			ID:      u.ID,
			Name:    u.Name,
			Balance: u.Balance.StringFixed(2),
		}
	}
	for i, it := range items {
		view.Items[i] = ItemView{
			SKU:    it.SKU,
			Name:   it.Name,
			Price:  it.Price.StringFixed(2),
			OnHand: it.OnHand,
		}
	}

	return view, nil
}
