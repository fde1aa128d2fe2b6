// Package model はドメインモデルを定義する。
package model

import "time"

// Session は管理者のログインセッションを表す。
// OAuthで確認済みのメールアドレスを保持する。
type Session struct {
	ID        string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
