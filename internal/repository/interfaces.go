// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sudhamayam/portfolio/internal/model"
)

// ErrConflict は一意制約（posts.slug, newsletter_subscribers.email）違反を表す。
// サービス層はこのエラーを受けてスラッグの再解決や購読済み判定を行う。
var ErrConflict = errors.New("unique constraint violation")

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	// ID形式が不正な場合も「見つからない」として扱う。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindBySlug はスラッグで記事を検索する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)

	// List は記事一覧をpublished_at_ts降順で返す。
	// includeDraftsがfalseの場合は公開中の記事のみを返す。
	List(ctx context.Context, includeDrafts bool) ([]*model.Post, error)

	// ListFeatured は公開中かつfeaturedの記事をpublished_at_ts降順で最大limit件返す。
	ListFeatured(ctx context.Context, limit int) ([]*model.Post, error)

	// Create は記事を作成する。スラッグ重複時はErrConflictを返す。
	Create(ctx context.Context, post *model.Post) error

	// Update は記事の正規化済みフィールドを全置換する。スラッグ重複時はErrConflictを返す。
	Update(ctx context.Context, post *model.Post) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListByPostID は記事のコメントをcreated_at_ts降順で返す。
	ListByPostID(ctx context.Context, postID string) ([]*model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// Count は全コメント数を返す。
	Count(ctx context.Context) (int, error)
}

// SubscriberRepository はニュースレター購読者の永続化インターフェース。
type SubscriberRepository interface {
	// FindByEmail は正規化済みメールアドレスで購読者を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error)

	// Create は購読者を作成する。メールアドレス重複時はErrConflictを返す。
	Create(ctx context.Context, subscriber *model.NewsletterSubscriber) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired はnow時点で期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ContentRepositories はコンテンツストアを構成するリポジトリの組。
// 設定されたSTORE_DRIVERに応じてPostgreSQL/MongoDB/インメモリのいずれかで構築される。
type ContentRepositories struct {
	Posts       PostRepository
	Comments    CommentRepository
	Subscribers SubscriberRepository
	Sessions    SessionRepository
}
