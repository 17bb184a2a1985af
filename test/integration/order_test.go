package integration

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 说明:订单Saga集成测试
//
// 这些测试验证跨资源的最终一致性:
// 1. 成功路径:促销码/库存/余额全部提交,订单CONFIRMED
// 2. 失败路径:已完成步骤逆序补偿,资源守恒,订单FAILED
// 3. 故障注入:fail_at_step在任意阶段触发补偿
//
// 断言用"差值"而非绝对值:测试之间会消耗资源,
// 只验证本次下单前后的资源变化量

// createOrder 下单并返回订单结果
func createOrder(t *testing.T, req map[string]interface{}) *OrderData {
	t.Helper()

	resp := PostJSON(t, BaseURL+"/orders", req)
	require.Equal(t, 0, resp.Code, "下单请求失败: %s", resp.Message)

	var data OrderData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return &data
}

// TestCreateOrder_Saga 订单Saga端到端
func TestCreateOrder_Saga(t *testing.T) {
	RequireServer(t)

	t.Run("成功路径全部资源提交", func(t *testing.T) {
		before := GetCatalog(t)

		data := createOrder(t, map[string]interface{}{
			"user_id": 1,
			"sku":     "item1",
			"qty":     1,
		})

		assert.True(t, data.Success)
		assert.Equal(t, "CONFIRMED", data.Status)
		assert.Equal(t, "100.00", data.FinalAmount)

		after := GetCatalog(t)
		assert.Equal(t, before.ItemOnHand(t, "item1")-1, after.ItemOnHand(t, "item1"), "现货应减少1")

		// 轨迹:3个步骤(无促销码)全部COMPLETED
		require.Len(t, data.Steps, 3)
		for _, s := range data.Steps {
			assert.Equal(t, "COMPLETED", s.Status)
		}

		t.Logf("✓ 订单创建成功: %s", data.OrderNo)
	})

	t.Run("余额不足触发补偿", func(t *testing.T) {
		before := GetCatalog(t)

		// user2余额50,买100的商品在扣款步骤失败
		data := createOrder(t, map[string]interface{}{
			"user_id": 2,
			"sku":     "item1",
			"qty":     1,
		})

		assert.False(t, data.Success)
		assert.Equal(t, "FAILED", data.Status)

		// 资源守恒:现货和余额都没有变化
		after := GetCatalog(t)
		assert.Equal(t, before.ItemOnHand(t, "item1"), after.ItemOnHand(t, "item1"), "现货应恢复")
		assert.Equal(t, before.UserBalance(t, 2), after.UserBalance(t, 2), "余额应未动")

		// 轨迹包含失败步骤和补偿记录
		names := stepNames(data.Steps)
		assert.Contains(t, names, "ChargeUserBalance:FAILED")
		assert.Contains(t, names, "Compensate_ReserveInventory:COMPLETED")

		t.Logf("✓ 补偿正确执行: %v", names)
	})

	t.Run("故障注入在最后一步触发全量补偿", func(t *testing.T) {
		before := GetCatalog(t)

		data := createOrder(t, map[string]interface{}{
			"user_id":      1,
			"sku":          "item1",
			"qty":          1,
			"promo_code":   "DISCOUNT10",
			"fail_at_step": "FinalizeOrder",
		})

		assert.False(t, data.Success)
		assert.Equal(t, "FAILED", data.Status)

		// 三个已完成步骤全部补偿,资源守恒
		after := GetCatalog(t)
		assert.Equal(t, before.ItemOnHand(t, "item1"), after.ItemOnHand(t, "item1"))
		assert.Equal(t, before.UserBalance(t, 1), after.UserBalance(t, 1))

		// 补偿按逆序出现在轨迹尾部;被注入的步骤没有记录
		names := stepNames(data.Steps)
		assert.Equal(t, []string{
			"ReservePromoUse:COMPLETED",
			"ReserveInventory:COMPLETED",
			"ChargeUserBalance:COMPLETED",
			"Compensate_ChargeUserBalance:COMPLETED",
			"Compensate_ReserveInventory:COMPLETED",
			"Compensate_ReservePromoUse:COMPLETED",
		}, names)

		t.Logf("✓ 逆序补偿验证通过")
	})

	t.Run("促销码耗尽下单被拒绝", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/orders", map[string]interface{}{
			"user_id":    1,
			"sku":        "item1",
			"qty":        1,
			"promo_code": "EXPIRED",
		})

		assert.NotEqual(t, 0, resp.Code, "耗尽的促销码应在校验阶段被拒绝")
		t.Logf("✓ 正确拒绝: %s", resp.Message)
	})

	t.Run("参数错误被拒绝", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/orders", map[string]interface{}{
			"user_id": 1,
			"sku":     "item1",
			"qty":     0,
		})

		assert.NotEqual(t, 0, resp.Code, "数量0应该被参数校验拒绝")
	})
}

// TestGetOrder 订单结果查询
func TestGetOrder(t *testing.T) {
	RequireServer(t)

	data := createOrder(t, map[string]interface{}{
		"user_id": 1,
		"sku":     "item1",
		"qty":     1,
	})

	// 重复查询返回一致结果(第二次通常命中缓存)
	for i := 0; i < 2; i++ {
		resp := GetJSON(t, fmt.Sprintf("%s/orders/%d", BaseURL, data.OrderID))
		require.Equal(t, 0, resp.Code)

		var got OrderData
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, data.OrderNo, got.OrderNo)
		assert.Equal(t, data.Status, got.Status)
		assert.Len(t, got.Steps, len(data.Steps))
	}

	// 不存在的订单
	resp := GetJSON(t, BaseURL+"/orders/99999999")
	assert.NotEqual(t, 0, resp.Code)
}

// stepNames 轨迹转为"步骤名:状态"序列
func stepNames(steps []StepData) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.StepName + ":" + s.Status
	}
	return out
}
