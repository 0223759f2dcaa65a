// Package service
package service

import (
	c "github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/service"
)

type FieldValidator struct {
	Min, Max          int
	ErrShort, ErrLong *ApiStatus
}

func (v *FieldValidator) CheckString(value string) *ApiStatus {
	length := len(value)
	if length > v.Max {
		return v.ErrLong
	}
	if length < v.Min {
		return v.ErrShort
	}
	return nil
}

func (v *FieldValidator) CheckInt(value int) *ApiStatus {
	if value > v.Max {
		return v.ErrLong
	}
	if value < v.Min {
		return v.ErrShort
	}
	return nil
}

var (
	pageSizeValidator *FieldValidator
	pageValidator     *FieldValidator
)

func InitValidator(config *c.HttpServerLimit) {
	pageSizeValidator = &FieldValidator{
		Min:      1,
		Max:      config.PageSizeMax,
		ErrShort: &ApiStatus{StatusName: "PAGE_SIZE_TOO_SMALL", Description: "分页大小过小", HttpCode: BadRequest},
		ErrLong:  &ApiStatus{StatusName: "PAGE_SIZE_TOO_LARGE", Description: "分页大小过大", HttpCode: BadRequest},
	}
	pageValidator = &FieldValidator{
		Min:      1,
		Max:      1 << 30,
		ErrShort: &ApiStatus{StatusName: "PAGE_TOO_SMALL", Description: "页码过小", HttpCode: BadRequest},
		ErrLong:  &ApiStatus{StatusName: "PAGE_TOO_LARGE", Description: "页码过大", HttpCode: BadRequest},
	}
}

func checkPage(page, pageSize int) *ApiStatus {
	if res := pageValidator.CheckInt(page); res != nil {
		return res
	}
	return pageSizeValidator.CheckInt(pageSize)
}
