package auth

import "strings"

// NormalizeEmail はメールアドレスを比較用にトリム・小文字化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdminEmail はemailが管理者アドレスと一致するかを判定する。
// どちらかが空の場合は常にfalse。
func IsAdminEmail(email, adminEmail string) bool {
	e := NormalizeEmail(email)
	a := NormalizeEmail(adminEmail)
	return e != "" && a != "" && e == a
}
