package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apporder "github.com/xiebiao/ordersaga/internal/application/order"
)

// orderViewKeyPrefix 订单视图缓存Key前缀
// Key格式: order:view:{orderID}
const orderViewKeyPrefix = "order:view:"

// defaultViewTTL 未配置时的兜底TTL
const defaultViewTTL = 10 * time.Minute

// OrderCache 订单结果视图缓存(Redis)
// 设计说明:
// 1. 只缓存终态订单视图——CONFIRMED/FAILED后订单和审计轨迹不再变化
// 2. 值为JSON序列化的OrderView，带TTL过期
// 3. 实现application/order.OrderCache接口，读写失败由调用方降级处理
type OrderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOrderCache 创建订单视图缓存
func NewOrderCache(client *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &OrderCache{client: client, ttl: ttl}
}

// SaveView 缓存订单视图
func (c *OrderCache) SaveView(ctx context.Context, view *apporder.OrderView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("序列化订单视图失败: %w", err)
	}

	key := viewKey(view.OrderID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入订单视图缓存失败: %w", err)
	}

	return nil
}

// GetView 读取缓存的订单视图
// 未命中返回(nil, nil)，调用方回源数据库
func (c *OrderCache) GetView(ctx context.Context, orderID uint) (*apporder.OrderView, error) {
	data, err := c.client.Get(ctx, viewKey(orderID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("读取订单视图缓存失败: %w", err)
	}

	var view apporder.OrderView
	if err := json.Unmarshal(data, &view); err != nil {
		// 缓存数据损坏按未命中处理,让调用方回源
		return nil, nil
	}

	return &view, nil
}

// viewKey 生成缓存Key
func viewKey(orderID uint) string {
	return fmt.Sprintf("%s%d", orderViewKeyPrefix, orderID)
}
