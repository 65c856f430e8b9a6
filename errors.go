package authcore

import (
	"errors"
	"fmt"
)

// Kind is the stable, client-visible code carried by every [Error].
type Kind string

const (
	KindInvalidCredentials    Kind = "INVALID_CREDENTIALS"
	KindAccountLocked         Kind = "ACCOUNT_LOCKED"
	KindAccountDisabled       Kind = "ACCOUNT_DISABLED"
	KindTokenExpired          Kind = "TOKEN_EXPIRED"
	KindInvalidToken          Kind = "INVALID_TOKEN"
	KindEmailRequired         Kind = "EMAIL_REQUIRED"
	KindMissingToken          Kind = "MISSING_TOKEN"
	KindMissingCode           Kind = "MISSING_CODE"
	KindProviderAuthFailed    Kind = "PROVIDER_AUTH_FAILED"
	KindProviderNotConfigured Kind = "PROVIDER_NOT_CONFIGURED"
	KindAlreadyVerified       Kind = "ALREADY_VERIFIED"
	KindServiceUnavailable    Kind = "SERVICE_UNAVAILABLE"
	KindInternal              Kind = "INTERNAL"
	KindEmailExists           Kind = "EMAIL_EXISTS"
	KindValidation            Kind = "VALIDATION_ERROR"
	KindRateLimited           Kind = "RATE_LIMITED"
	KindForbidden             Kind = "FORBIDDEN"
)

// Error is the typed failure returned by every Engine operation. Message and
// MessageVI are safe to show to end users; the wrapped cause is for server-side
// logs only.
type Error struct {
	Kind      Kind
	Message   string
	MessageVI string
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same Kind, so callers can compare against the
// package sentinels regardless of the attached cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Cause returns the wrapped internal error, if any.
func (e *Error) Cause() error {
	return e.cause
}

func (e *Error) with(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, MessageVI: e.MessageVI, cause: cause}
}

var (
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials, Message: "Invalid email or password", MessageVI: "Email hoặc mật khẩu không đúng"}
	ErrAccountLocked         = &Error{Kind: KindAccountLocked, Message: "Account is temporarily locked due to too many failed login attempts", MessageVI: "Tài khoản tạm thời bị khóa do đăng nhập sai quá nhiều lần"}
	ErrAccountDisabled       = &Error{Kind: KindAccountDisabled, Message: "Account has been disabled", MessageVI: "Tài khoản đã bị vô hiệu hóa"}
	ErrTokenExpired          = &Error{Kind: KindTokenExpired, Message: "Token has expired", MessageVI: "Token đã hết hạn"}
	ErrInvalidToken          = &Error{Kind: KindInvalidToken, Message: "Invalid or revoked token", MessageVI: "Token không hợp lệ hoặc đã bị thu hồi"}
	ErrEmailRequired         = &Error{Kind: KindEmailRequired, Message: "The provider did not return a usable email address", MessageVI: "Nhà cung cấp không trả về địa chỉ email hợp lệ"}
	ErrMissingToken          = &Error{Kind: KindMissingToken, Message: "Token is required", MessageVI: "Thiếu token"}
	ErrMissingCode           = &Error{Kind: KindMissingCode, Message: "Authorization code is required", MessageVI: "Thiếu mã xác thực"}
	ErrProviderAuthFailed    = &Error{Kind: KindProviderAuthFailed, Message: "Sign-in with the external provider failed", MessageVI: "Đăng nhập qua nhà cung cấp bên ngoài thất bại"}
	ErrProviderNotConfigured = &Error{Kind: KindProviderNotConfigured, Message: "This sign-in provider is not configured", MessageVI: "Phương thức đăng nhập này chưa được cấu hình"}
	ErrAlreadyVerified       = &Error{Kind: KindAlreadyVerified, Message: "Email is already verified", MessageVI: "Email đã được xác thực"}
	ErrServiceUnavailable    = &Error{Kind: KindServiceUnavailable, Message: "Service temporarily unavailable, please retry", MessageVI: "Dịch vụ tạm thời không khả dụng, vui lòng thử lại"}
	ErrInternal              = &Error{Kind: KindInternal, Message: "Internal server error", MessageVI: "Lỗi máy chủ nội bộ"}
	ErrEmailExists           = &Error{Kind: KindEmailExists, Message: "Email is already registered", MessageVI: "Email đã được đăng ký"}
	ErrValidation            = &Error{Kind: KindValidation, Message: "Invalid request data", MessageVI: "Dữ liệu không hợp lệ"}
	ErrWeakPassword          = &Error{Kind: KindValidation, Message: "Password does not meet the strength policy", MessageVI: "Mật khẩu không đủ mạnh"}
	ErrRateLimited           = &Error{Kind: KindRateLimited, Message: "Too many requests, please try again later", MessageVI: "Quá nhiều yêu cầu, vui lòng thử lại sau"}
	ErrForbidden             = &Error{Kind: KindForbidden, Message: "You do not have permission to perform this action", MessageVI: "Bạn không có quyền thực hiện thao tác này"}
	ErrEngineNotReady        = &Error{Kind: KindInternal, Message: "Internal server error", MessageVI: "Lỗi máy chủ nội bộ", cause: errors.New("engine not initialized")}
)

// KindOf reports the Kind of err. Errors that are not an *Error collapse to
// KindInternal; nil returns the empty Kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Public returns the client-safe view of err: the matching *Error without its
// cause, or ErrInternal for anything unexpected.
func Public(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindInternal {
			return ErrInternal
		}
		return &Error{Kind: e.Kind, Message: e.Message, MessageVI: e.MessageVI}
	}
	return ErrInternal
}
