package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 业务错误码，随响应体一起返回给前端
type Code string

const (
	CodeValidation              Code = "VALIDATION"
	CodeEmptyCart               Code = "EMPTY_CART"
	CodeProductNotFound         Code = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock       Code = "INSUFFICIENT_STOCK"
	CodeInvalidAddress          Code = "INVALID_ADDRESS"
	CodeInvalidPaymentMethod    Code = "INVALID_PAYMENT_METHOD"
	CodeMissingBuyer            Code = "MISSING_BUYER"
	CodeOrderNotFound           Code = "ORDER_NOT_FOUND"
	CodeUserNotFound            Code = "USER_NOT_FOUND"
	CodeUnauthenticated         Code = "UNAUTHENTICATED"
	CodeForbidden               Code = "FORBIDDEN"
	CodeInvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	CodeOrderNotCancellable     Code = "ORDER_NOT_CANCELLABLE"
	CodeAccountLocked           Code = "ACCOUNT_LOCKED"
	CodeInvalidCredential       Code = "INVALID_CREDENTIAL"
	CodeInvalidOTP              Code = "INVALID_OTP"
	CodeDuplicate               Code = "DUPLICATE"
	CodeStorageUnavailable      Code = "STORAGE_UNAVAILABLE"
)

// Error 带错误码和 HTTP 状态的业务错误
type Error struct {
	Code    Code
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New 创建业务错误
func New(code Code, status int, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Status:  status,
		Message: fmt.Sprintf(format, args...),
	}
}

// BadRequest 400 错误
func BadRequest(code Code, format string, args ...interface{}) *Error {
	return New(code, http.StatusBadRequest, format, args...)
}

// NotFound 404 错误
func NotFound(code Code, format string, args ...interface{}) *Error {
	return New(code, http.StatusNotFound, format, args...)
}

// Unauthenticated 401 错误
func Unauthenticated(format string, args ...interface{}) *Error {
	return New(CodeUnauthenticated, http.StatusUnauthorized, format, args...)
}

// Forbidden 403 错误
func Forbidden(format string, args ...interface{}) *Error {
	return New(CodeForbidden, http.StatusForbidden, format, args...)
}

// Storage 底层存储错误，对外只暴露统一提示，原始错误落日志
func Storage(err error) *Error {
	return New(CodeStorageUnavailable, http.StatusInternalServerError, "存储服务暂不可用，请稍后重试")
}

// From 提取业务错误；非业务错误统一按存储错误处理，避免内部细节外泄
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Storage(err)
}

// Is 判断错误码
func Is(err error, code Code) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
