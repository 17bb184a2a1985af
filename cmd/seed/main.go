package main

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/ordersaga/internal/infrastructure/config"
	"github.com/xiebiao/ordersaga/internal/infrastructure/persistence/mysql"
)

// main 初始化演示数据
// 用法: go run ./cmd/seed
// 重复执行是幂等的:按主键UPSERT，已有数据会被重置为初始值
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	if err := seed(db); err != nil {
		log.Fatalf("初始化演示数据失败: %v", err)
	}

	fmt.Println("✓ 演示数据初始化完成")
	fmt.Println("  - 用户: user1(余额1000.00) user2(余额50.00)")
	fmt.Println("  - 商品: item1(现货10,单价100.00) item2(现货5,单价100.00)")
	fmt.Println("  - 促销码: DISCOUNT10(5次,-10.00) ONETIME(1次,-20.00) EXPIRED(0次,-15.00)")
}

// seed 写入演示数据集
// 数据刻意覆盖各种失败场景:
// - user2余额只有50，买一件100的商品就会在扣款步骤失败
// - item2现货只有5，购买6件会在库存步骤失败
// - EXPIRED次数为0，下单校验直接拒绝
func seed(db *gorm.DB) error {
	users := []mysql.UserModel{
		{ID: 1, Name: "user1", Balance: decimal.NewFromInt(1000)},
		{ID: 2, Name: "user2", Balance: decimal.NewFromInt(50)},
	}

	items := []mysql.InventoryItemModel{
		{SKU: "item1", Name: "演示商品一", Price: decimal.NewFromInt(100), OnHand: 10},
		{SKU: "item2", Name: "演示商品二", Price: decimal.NewFromInt(100), OnHand: 5},
	}

	promos := []mysql.PromoCodeModel{
		{Code: "DISCOUNT10", RemainingUses: 5, DiscountAmount: decimal.NewFromInt(10)},
		{Code: "ONETIME", RemainingUses: 1, DiscountAmount: decimal.NewFromInt(20)},
		{Code: "EXPIRED", RemainingUses: 0, DiscountAmount: decimal.NewFromInt(15)},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}

		if err := tx.Clauses(upsert).Create(&users).Error; err != nil {
			return fmt.Errorf("写入用户失败: %w", err)
		}
		if err := tx.Clauses(upsert).Create(&items).Error; err != nil {
			return fmt.Errorf("写入商品失败: %w", err)
		}
		if err := tx.Clauses(upsert).Create(&promos).Error; err != nil {
			return fmt.Errorf("写入促销码失败: %w", err)
		}
		return nil
	})
}
