package mysql

import (
	"context"

	"gorm.io/gorm"
)

// TxManager 事务管理器
// 设计说明:
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB(避免全局变量)
// 3. 实现application/saga.TxManager接口:每个Saga步骤的执行和补偿
//    各自运行在独立的本地事务中(Saga没有全局事务)
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
// 要点:
// 1. fn函数内的所有Repository操作都会在同一事务中执行
// 2. fn返回error时自动ROLLBACK,返回nil时自动COMMIT
// 3. 通过context.WithValue传递事务DB,Repository的getDB从context提取
//
// 使用示例(库存预留步骤):
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    // 1. 条件扣减库存(同一事务)
//	    if err := itemRepo.DeductStock(ctx, sku, qty); err != nil {
//	        return err // 自动回滚
//	    }
//	    // 2. 写入预留记录
//	    return reservationRepo.Create(ctx, reservation) // nil则提交
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 将事务DB注入到Context中
		txCtx := context.WithValue(ctx, "tx", tx)
		return fn(txCtx)
	})
}
