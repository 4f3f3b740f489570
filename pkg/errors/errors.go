package errors

import "errors"

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// 业务错误码 (400-599)
const (
	CodeInvalidParam      = 400 // 参数错误
	CodeUnauthorized      = 401 // 未认证
	CodeForbidden         = 403 // 无权访问他人数据
	CodeNotFound          = 404 // 记录不存在
	CodeConflict          = 409 // 唯一性冲突
	CodeInvalidTransition = 422 // 非法的状态流转
	CodeServerError       = 500 // 系统错误
)

// AppError 业务错误 - 携带稳定错误码，调用方按码分支而不解析消息文本
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// New 创建业务错误
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// ========== 快捷构造方法 ==========

func NewInvalidParam(message string) *AppError {
	return New(CodeInvalidParam, message)
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func NewNotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

func NewInvalidTransition(message string) *AppError {
	return New(CodeInvalidTransition, message)
}

// CodeOf 提取错误码，非业务错误一律按系统错误处理
func CodeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// IsCode 判断错误是否为指定错误码
func IsCode(err error, code int) bool {
	return CodeOf(err) == code
}
