package content

import (
	"context"
	"log/slog"

	"github.com/sudhamayam/portfolio/internal/metrics"
	"github.com/sudhamayam/portfolio/internal/model"
	"github.com/sudhamayam/portfolio/internal/sitedata"
)

// フォールバック理由。portfolio_fallback_served_totalのreasonラベルに使う。
const (
	fallbackUnconfigured = "unconfigured"
	fallbackSeedFailed   = "seed_failed"
	fallbackQueryFailed  = "query_failed"
)

// StoreOptions はStoreの振る舞いを設定する。
type StoreOptions struct {
	// SeedOnRead は初回読み取り時に既定データのシードを保証するかどうか。
	SeedOnRead bool
	Metrics    metrics.MetricsCollector
	Logger     *slog.Logger
}

// Store はアプリケーションから見たコンテンツストア。
// 読み取りはストア未設定・シード失敗・クエリ失敗のいずれでも同梱データで応答し、エラーを返さない。
// 書き込みはストアが必要で、エラーは呼び出し元に伝播する。
type Store struct {
	service *Service
	guard   *SeedGuard
	dataset *sitedata.Dataset
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewStore はStoreを生成する。serviceがnilの場合はストア未設定として扱う。
func NewStore(service *Service, dataset *sitedata.Dataset, opts StoreOptions) *Store {
	s := &Store{
		service: service,
		dataset: dataset,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if s.metrics == nil {
		s.metrics = metrics.NopCollector{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if service != nil && opts.SeedOnRead {
		s.guard = NewSeedGuard(func(ctx context.Context) error {
			_, err := s.Seed(ctx)
			return err
		})
	}
	return s
}

// Configured は永続ストアが設定されているかどうかを返す。
func (s *Store) Configured() bool {
	return s.service != nil
}

// Seed は既定データのシードを実行する。
func (s *Store) Seed(ctx context.Context) (SeedResult, error) {
	if s.service == nil {
		return SeedResult{}, model.NewPersistenceUnavailableError()
	}
	result, err := s.service.SeedDefaults(ctx, s.dataset.Posts, s.dataset.Comments)
	s.metrics.RecordSeedInserted(result.InsertedPosts, result.InsertedComments)
	return result, err
}

// ready は読み取りをストアで処理できるかを判定する。できない場合はフォールバックを記録する。
func (s *Store) ready(ctx context.Context, operation string) bool {
	if s.service == nil {
		s.recordFallback(ctx, operation, fallbackUnconfigured, nil)
		return false
	}
	if s.guard != nil {
		if err := s.guard.Ensure(ctx); err != nil {
			s.recordFallback(ctx, operation, fallbackSeedFailed, err)
			return false
		}
	}
	return true
}

func (s *Store) recordFallback(ctx context.Context, operation, reason string, err error) {
	s.metrics.RecordFallbackServed(operation, reason)
	attrs := []any{
		slog.String("operation", operation),
		slog.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.WarnContext(ctx, "同梱データで応答します", attrs...)
}

// ListPosts は記事一覧を公開日の降順で返す。
func (s *Store) ListPosts(ctx context.Context, includeDrafts bool) []*model.Post {
	const op = "list_posts"
	if s.ready(ctx, op) {
		posts, err := s.service.ListPosts(ctx, includeDrafts)
		if err == nil {
			return posts
		}
		s.recordFallback(ctx, op, fallbackQueryFailed, err)
	}
	return s.dataset.FallbackPosts(includeDrafts)
}

// ListFeaturedPosts は公開中のおすすめ記事を最大limit件返す。limitは[1, 12]に丸める。
func (s *Store) ListFeaturedPosts(ctx context.Context, limit int) []*model.Post {
	const op = "list_featured_posts"
	limit = ClampFeaturedLimit(limit)
	if s.ready(ctx, op) {
		posts, err := s.service.ListFeaturedPosts(ctx, limit)
		if err == nil {
			return posts
		}
		s.recordFallback(ctx, op, fallbackQueryFailed, err)
	}
	return s.dataset.FallbackFeaturedPosts(limit)
}

// GetPost は記事を返す。存在しない場合はnilを返す。
func (s *Store) GetPost(ctx context.Context, id string) *model.Post {
	const op = "get_post"
	if s.ready(ctx, op) {
		post, err := s.service.GetPost(ctx, id)
		if err == nil {
			return post
		}
		s.recordFallback(ctx, op, fallbackQueryFailed, err)
	}
	return s.dataset.FallbackPost(id)
}

// ListCategories は公開中の記事のカテゴリを重複なしで返す。
func (s *Store) ListCategories(ctx context.Context) []string {
	const op = "list_categories"
	if s.ready(ctx, op) {
		categories, err := s.service.ListCategories(ctx)
		if err == nil {
			return categories
		}
		s.recordFallback(ctx, op, fallbackQueryFailed, err)
	}
	return distinctCategories(s.dataset.FallbackPosts(false))
}

// ListComments は記事のコメントを作成日時の降順で返す。
func (s *Store) ListComments(ctx context.Context, postID string) []*model.Comment {
	const op = "list_comments"
	if s.ready(ctx, op) {
		comments, err := s.service.ListComments(ctx, postID)
		if err == nil {
			return comments
		}
		s.recordFallback(ctx, op, fallbackQueryFailed, err)
	}
	return s.dataset.FallbackComments(postID)
}

// AdminStats は管理画面向けの集計値を返す。
func (s *Store) AdminStats(ctx context.Context) *model.BlogStats {
	const op = "admin_stats"
	if s.ready(ctx, op) {
		stats, err := s.service.AdminStats(ctx)
		if err == nil {
			return stats
		}
		s.recordFallback(ctx, op, fallbackQueryFailed, err)
	}
	return buildStats(s.dataset.FallbackPosts(true), len(s.dataset.Comments))
}

// CreatePost は記事を作成してIDを返す。
func (s *Store) CreatePost(ctx context.Context, input model.PostInput) (string, error) {
	if s.service == nil {
		return "", model.NewPersistenceUnavailableError()
	}
	id, err := s.service.CreatePost(ctx, input)
	if err != nil {
		return "", err
	}
	s.metrics.RecordPostSaved("create")
	return id, nil
}

// UpdatePost は記事を更新してIDを返す。
func (s *Store) UpdatePost(ctx context.Context, id string, input model.PostInput) (string, error) {
	if s.service == nil {
		return "", model.NewPersistenceUnavailableError()
	}
	updatedID, err := s.service.UpdatePost(ctx, id, input)
	if err != nil {
		return "", err
	}
	s.metrics.RecordPostSaved("update")
	return updatedID, nil
}

// AddComment はコメントを追加する。
func (s *Store) AddComment(ctx context.Context, postID, author, message string) (*model.Comment, error) {
	if s.service == nil {
		return nil, model.NewPersistenceUnavailableError()
	}
	comment, err := s.service.AddComment(ctx, postID, author, message)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCommentAdded()
	return comment, nil
}

// AddNewsletterSubscriber はニュースレター購読者を登録する。
func (s *Store) AddNewsletterSubscriber(ctx context.Context, email string) (bool, error) {
	if s.service == nil {
		return false, model.NewPersistenceUnavailableError()
	}
	already, err := s.service.AddNewsletterSubscriber(ctx, email)
	if err != nil {
		return false, err
	}
	s.metrics.RecordSubscription(already)
	return already, nil
}
