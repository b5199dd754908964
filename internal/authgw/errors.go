package authgw

import "strings"

// Code identifies one member of the closed auth error set.
type Code string

const (
	CodeSignupFailed       Code = "signup_failed"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeEmailNotConfirmed  Code = "email_not_confirmed"
	CodeUserAlreadyExists  Code = "user_already_exists"
	CodeWeakPassword       Code = "weak_password"
	CodeInvalidEmail       Code = "invalid_email"
	CodeUnknown            Code = "unknown"
)

// Error is a provider failure mapped into the closed local set.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Messages shown to the user per error code.
var userMessages = map[Code]string{
	CodeSignupFailed:       "サインアップに失敗しました",
	CodeInvalidCredentials: "メールアドレスまたはパスワードが間違っています",
	CodeEmailNotConfirmed:  "メールアドレスの確認が必要です",
	CodeUserAlreadyExists:  "このメールアドレスは既に使用されています",
	CodeWeakPassword:       "パスワードが弱すぎます（8文字以上必要）",
	CodeInvalidEmail:       "無効なメールアドレスです",
}

// UserMessage returns the user-facing text for the error.
func (e *Error) UserMessage() string {
	if msg, ok := userMessages[e.Code]; ok {
		return msg
	}
	return e.Message
}

// mapError classifies raw provider error text by substring match. Brittle
// by nature, but deterministic for the provider's fixed message formats.
// Order matters: the specific credential and account messages are checked
// before the generic password/email buckets.
func mapError(msg string) *Error {
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid login credentials"):
		return &Error{Code: CodeInvalidCredentials, Message: msg}
	case strings.Contains(lowered, "email not confirmed"):
		return &Error{Code: CodeEmailNotConfirmed, Message: msg}
	case strings.Contains(lowered, "user already registered"):
		return &Error{Code: CodeUserAlreadyExists, Message: msg}
	case strings.Contains(lowered, "password"):
		return &Error{Code: CodeWeakPassword, Message: msg}
	case strings.Contains(lowered, "email"):
		return &Error{Code: CodeInvalidEmail, Message: msg}
	default:
		return &Error{Code: CodeUnknown, Message: msg}
	}
}
