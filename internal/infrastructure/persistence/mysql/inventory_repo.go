package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/ordersaga/internal/domain/inventory"
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
)

// itemRepository 库存商品仓储实现(MySQL)
// 要点:扣减库存使用条件UPDATE(WHERE on_hand >= qty)，并发下不会超卖
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository 创建库存商品仓储
func NewItemRepository(db *gorm.DB) inventory.Repository {
	return &itemRepository{db: db}
}

// FindBySKU 根据SKU查找商品
func (r *itemRepository) FindBySKU(ctx context.Context, sku string) (*inventory.Item, error) {
	var model InventoryItemModel
	err := getDB(ctx, r.db).Where("sku = ?", sku).First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrItemNotFound
		}
		return nil, apperrors.Wrap(err, "查询商品失败")
	}

	return toItemEntity(&model), nil
}

// List 查询全部商品
func (r *itemRepository) List(ctx context.Context) ([]*inventory.Item, error) {
	var models []InventoryItemModel
	if err := getDB(ctx, r.db).Order("sku").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询商品列表失败")
	}

	items := make([]*inventory.Item, len(models))
	for i := range models {
		items[i] = toItemEntity(&models[i])
	}
	return items, nil
}

// DeductStock 扣减现货(原子操作)
// UPDATE inventory_items SET on_hand = on_hand - ? WHERE sku = ? AND on_hand >= ?
func (r *itemRepository) DeductStock(ctx context.Context, sku string, qty int) error {
	db := getDB(ctx, r.db)

	result := db.Model(&InventoryItemModel{}).
		Where("sku = ? AND on_hand >= ?", sku, qty).
		UpdateColumn("on_hand", gorm.Expr("on_hand - ?", qty))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "扣减库存失败")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&InventoryItemModel{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "扣减库存失败")
		}
		if count == 0 {
			return inventory.ErrItemNotFound
		}
		return inventory.ErrInsufficientStock
	}

	return nil
}

// RestoreStock 恢复现货(释放补偿用)
func (r *itemRepository) RestoreStock(ctx context.Context, sku string, qty int) error {
	result := getDB(ctx, r.db).Model(&InventoryItemModel{}).
		Where("sku = ?", sku).
		UpdateColumn("on_hand", gorm.Expr("on_hand + ?", qty))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "恢复库存失败")
	}

	if result.RowsAffected == 0 {
		return inventory.ErrItemNotFound
	}

	return nil
}

// toItemEntity GORM模型 → 领域实体
func toItemEntity(model *InventoryItemModel) *inventory.Item {
	return &inventory.Item{
		SKU:    model.SKU,
		Name:   model.Name,
		Price:  model.Price,
		OnHand: model.OnHand,
	}
}

// reservationRepository 库存预留记录仓储实现(MySQL)
type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建库存预留记录仓储
func NewReservationRepository(db *gorm.DB) inventory.ReservationRepository {
	return &reservationRepository{db: db}
}

// Create 写入预留记录
func (r *reservationRepository) Create(ctx context.Context, res *inventory.Reservation) error {
	model := &InventoryReservationModel{
		OrderID: res.OrderID,
		SKU:     res.SKU,
		Qty:     res.Qty,
		Status:  string(res.Status),
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "写入库存预留记录失败")
	}

	res.ID = model.ID
	return nil
}

// Release 将匹配的RESERVED记录置为RELEASED
// 没有匹配记录时不报错:补偿可能在预留记录落盘前触发
func (r *reservationRepository) Release(ctx context.Context, orderID uint, sku string) error {
	result := getDB(ctx, r.db).Model(&InventoryReservationModel{}).
		Where("order_id = ? AND sku = ? AND status = ?", orderID, sku, string(inventory.ReservationReserved)).
		Update("status", string(inventory.ReservationReleased))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "释放库存预留记录失败")
	}

	return nil
}
