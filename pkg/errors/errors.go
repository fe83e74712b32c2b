// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"

	// 排班引擎相关
	CodeCalendarEmpty  Code = "CALENDAR_EMPTY"   // 该月无工作日
	CodeRosterTooSmall Code = "ROSTER_TOO_SMALL" // 员工不足17人
	CodePinInvalid     Code = "PIN_INVALID"      // 锁定单元格非法
	CodeInfeasible     Code = "INFEASIBLE"       // 硬约束下无可行解
	CodeTimeout        Code = "TIMEOUT"          // 求解超时

	// 数据相关
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code   `json:"error_kind"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodePinInvalid:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeCalendarEmpty, CodeRosterTooSmall, CodeInfeasible:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定错误码
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// CalendarEmpty 创建无工作日错误
func CalendarEmpty(month, group string) *AppError {
	return New(CodeCalendarEmpty, fmt.Sprintf("%s 月 %s 组没有工作日，请先设置首个工作日", month, group))
}

// RosterTooSmall 创建员工不足错误
func RosterTooSmall(actual int) *AppError {
	return New(CodeRosterTooSmall, fmt.Sprintf("员工不足: 需要至少17人，实际%d人", actual))
}

// PinInvalid 创建锁定单元格非法错误
func PinInvalid(detail string) *AppError {
	return New(CodePinInvalid, "锁定单元格非法").WithDetail(detail)
}

// Infeasible 创建无可行解错误
func Infeasible(detail string) *AppError {
	return New(CodeInfeasible, "硬约束下不存在可行排班").WithDetail(detail)
}

// Timeout 创建求解超时错误
func Timeout(detail string) *AppError {
	return New(CodeTimeout, "求解器在时限内未找到可行解").WithDetail(detail)
}

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}
