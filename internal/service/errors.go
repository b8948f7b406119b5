package service

import "errors"

var (
	ErrInvalidRate   = errors.New("佣金率必须在 0-100 之间")
	ErrInvalidAmount = errors.New("金额必须大于 0")
	ErrSystemBusy    = errors.New("系统繁忙，请稍后重试")

	// 一级销售固定按基准费率结算
	ErrPrimaryRateFixed = errors.New("一级销售按基准费率结算，不支持修改佣金率")
)
