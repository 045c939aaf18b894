// Package errs 定义业务错误码与携带错误码的错误类型。
// 所有可恢复的业务错误都通过稳定的错误码暴露给调用方，接口层据此映射 HTTP 状态。
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 业务错误码
type Code string

const (
	CodeNotFound             Code = "NOT_FOUND"              // 实体不存在
	CodeInvalidTransition    Code = "INVALID_TRANSITION"     // 状态机非法迁移
	CodeGateConditionUnmet   Code = "GATE_CONDITION_UNMET"   // 审批前置条件未满足
	CodeDuplicateInvoice     Code = "DUPLICATE_INVOICE"      // 已存在未关闭的账单
	CodeOverpaymentRejected  Code = "OVERPAYMENT_REJECTED"   // 付款金额超出账单金额
	CodeUnknownChecklistItem Code = "UNKNOWN_CHECKLIST_ITEM" // 清单项不属于模板
	CodeAlreadyInitialized   Code = "ALREADY_INITIALIZED"    // 工作流已初始化
	CodeNoMatchingTemplate   Code = "NO_MATCHING_TEMPLATE"   // 无可用工作流模板
	CodeConflict             Code = "CONFLICT"               // 锁冲突 / 并发修改
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"       // 参数校验失败
	CodeInternal             Code = "INTERNAL"               // 其余内部错误
)

// Error 携带错误码的业务错误
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New 创建业务错误
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误并附加错误码
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf 提取错误码，非业务错误返回 CodeInternal
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is 判断错误是否携带指定错误码
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus 将错误映射为 HTTP 状态码
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeGateConditionUnmet, CodeOverpaymentRejected,
		CodeUnknownChecklistItem, CodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case CodeDuplicateInvoice, CodeAlreadyInitialized, CodeConflict:
		return http.StatusConflict
	case CodeNoMatchingTemplate:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
