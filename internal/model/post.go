// Package model はドメインモデルを定義する。
package model

import "time"

// PostStatus は記事の公開状態を表す。
type PostStatus string

const (
	// PostStatusPublished は公開中の記事。
	PostStatusPublished PostStatus = "published"
	// PostStatusDraft は下書きの記事。
	PostStatusDraft PostStatus = "draft"
)

// Post はブログ記事を表す。
// PublishedAtはYYYY-MM-DD形式、PublishedAtTsはその日付のUTC 0時のミリ秒値で、降順ソートに使う。
type Post struct {
	ID              string
	Slug            string
	Title           string
	Excerpt         string
	Content         []string
	Category        string
	PublishedAt     string
	PublishedAtTs   int64
	ReadTimeMinutes int
	CoverGradient   string
	Status          PostStatus
	Featured        bool
	SEODescription  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsPublished は記事が公開中かどうかを返す。
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostInput は記事の作成・更新時に受け取る未正規化の入力を表す。
// Slugは明示指定がある場合のみ設定する。
type PostInput struct {
	Slug            string
	Title           string
	Excerpt         string
	Content         []string
	Category        string
	PublishedAt     string
	ReadTimeMinutes float64
	CoverGradient   string
	Status          PostStatus
	Featured        bool
	SEODescription  string
}

// BlogStats は管理画面向けの集計値。
// Categoriesは下書きを含む全記事のカテゴリ数。
type BlogStats struct {
	TotalPosts     int
	PublishedPosts int
	TotalComments  int
	Categories     int
}
