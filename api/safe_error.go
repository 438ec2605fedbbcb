package api

import (
	"strconv"

	"chatdesk/config"
	"chatdesk/service"
)

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情，避免信息泄露
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// parseID 路径中的正整数 ID
func parseID(raw, field string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return uint(id), nil
}
