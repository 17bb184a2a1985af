package user

import (
	apperrors "github.com/xiebiao/ordersaga/pkg/errors"
)

// 用户领域错误定义
var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.New(apperrors.ErrCodeUserNotFound, "用户不存在")

	// ErrInsufficientBalance 余额不足
	ErrInsufficientBalance = apperrors.New(apperrors.ErrCodeInsufficientBalance, "余额不足")
)
