// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeInvalidEmail           = "INVALID_EMAIL"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodePostNotFound           = "POST_NOT_FOUND"
	ErrCodePostUnavailable        = "POST_UNAVAILABLE"
	ErrCodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// NewValidationError は必須項目不足などの入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
		Action:   "Fill in every required field and try again.",
	}
}

// NewRequiredFieldsMissingError は記事の必須項目不足エラーを生成する。
func NewRequiredFieldsMissingError() *APIError {
	return NewValidationError("Required fields are missing.")
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "Send a valid JSON body.",
	}
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "Invalid email address.",
		Category: "validation",
		Action:   "Enter an address like name@example.com.",
	}
}

// NewUnauthorizedError は未認証・非管理者エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Unauthorized.",
		Category: "auth",
		Action:   "Sign in with the administrator account.",
	}
}

// NewPostNotFoundError は更新対象の記事が存在しない場合のエラーを生成する。
func NewPostNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  "Post not found.",
		Category: "content",
		Action:   "Check the post ID.",
	}
}

// NewPostUnavailableError はコメント対象の記事が存在しないか未公開の場合のエラーを生成する。
func NewPostUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodePostUnavailable,
		Message:  "Post unavailable for comments.",
		Category: "content",
		Action:   "Comments can only be added to published posts.",
	}
}

// NewPersistenceUnavailableError はストア未設定で書き込みができない場合のエラーを生成する。
func NewPersistenceUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodePersistenceUnavailable,
		Message:  "Persistence is unavailable. Configure the content store and redeploy.",
		Category: "system",
		Action:   "Set DATABASE_URL or MONGO_URL for the selected STORE_DRIVER.",
	}
}

// NewCSRFError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "CSRF token validation failed.",
		Category: "auth",
		Action:   "Fetch /api/csrf-token and send it in the X-CSRF-Token header.",
	}
}

// NewInternalError は詳細を伏せた内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error.",
		Category: "system",
		Action:   "Try again in a moment.",
	}
}
