package service

import "fmt"

// ValidationError 请求参数不合法，不产生任何副作用
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError 机器人不存在
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// PersistenceError 聊天记录写入失败，只记日志不影响响应
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist interaction: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
