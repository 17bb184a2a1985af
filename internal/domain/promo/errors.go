package promo

import (
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
)

// 促销码领域错误定义
var (
	// ErrPromoNotFound 促销码不存在
	ErrPromoNotFound = apperrors.New(apperrors.ErrCodePromoNotFound, "促销码不存在")

	// ErrPromoExhausted 促销码使用次数已耗尽
	ErrPromoExhausted = apperrors.New(apperrors.ErrCodePromoExhausted, "促销码使用次数已耗尽")
)
