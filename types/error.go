package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the tool servers.
type ErrorCode string

const (
	// ErrAuth 凭证换取 access token 失败
	ErrAuth ErrorCode = "AUTH"
	// ErrUpload 单个素材上传失败
	ErrUpload ErrorCode = "UPLOAD"
	// ErrPublish 封面解析或草稿创建失败
	ErrPublish ErrorCode = "PUBLISH"
	// ErrInput 调用方参数错误（互斥参数、不可读文件等）
	ErrInput ErrorCode = "INPUT"
	// ErrUpstream 上游 HTTP 接口返回非预期结果
	ErrUpstream ErrorCode = "UPSTREAM"
	// ErrInternal 内部错误
	ErrInternal ErrorCode = "INTERNAL"
)

// ErrMissingCover 既没有显式封面，正文也没有可用图片
var ErrMissingCover = errors.New("missing cover")

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code         ErrorCode `json:"code"`
	Message      string    `json:"message"`
	PlatformCode int       `json:"platform_code,omitempty"` // 上游平台返回的 errcode，0 表示无
	HTTPStatus   int       `json:"http_status,omitempty"`
	Cause        error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.PlatformCode != 0 {
		msg = fmt.Sprintf("%s (errcode=%d)", msg, e.PlatformCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithPlatformCode sets the errcode reported by the upstream platform.
func (e *Error) WithPlatformCode(code int) *Error {
	e.PlatformCode = code
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// NewAuthError 创建鉴权错误
func NewAuthError(format string, args ...any) *Error {
	return NewError(ErrAuth, fmt.Sprintf(format, args...))
}

// NewUploadError 创建上传错误
func NewUploadError(format string, args ...any) *Error {
	return NewError(ErrUpload, fmt.Sprintf(format, args...))
}

// NewPublishError 创建发布错误
func NewPublishError(format string, args ...any) *Error {
	return NewError(ErrPublish, fmt.Sprintf(format, args...))
}

// NewInputError 创建参数错误
func NewInputError(format string, args ...any) *Error {
	return NewError(ErrInput, fmt.Sprintf(format, args...))
}

// NewUpstreamError 创建上游错误
func NewUpstreamError(format string, args ...any) *Error {
	return NewError(ErrUpstream, fmt.Sprintf(format, args...))
}

// AsError extracts a *Error from the error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether any *Error in the chain carries code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
