// Package model はドメインモデルを定義する。
package model

import "time"

// Comment は記事へのコメントを表す。
// CreatedAtはISO 8601文字列をそのまま保持し、CreatedAtTsはソート用のミリ秒値。
type Comment struct {
	ID          string
	PostID      string
	Author      string
	Message     string
	CreatedAt   string
	CreatedAtTs int64
}

// NewsletterSubscriber はニュースレター購読者を表す。
// Emailは小文字化・トリム済みで一意。
type NewsletterSubscriber struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
