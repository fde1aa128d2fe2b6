package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sudhamayam/portfolio/internal/model"
	"github.com/sudhamayam/portfolio/internal/repository"
	"github.com/sudhamayam/portfolio/internal/security"
)

// maxSlugAttempts は保存時の一意制約違反に対してスラッグを再解決する最大回数。
const maxSlugAttempts = 5

// emailPattern はlocal@domain.tld形式の簡易チェック。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service はブログのドメインロジックを提供するサービス層。
// 記事の作成・更新、コメント投稿、ニュースレター購読、読み取り系の集計を扱う。
type Service struct {
	posts       repository.PostRepository
	comments    repository.CommentRepository
	subscribers repository.SubscriberRepository
	sanitizer   security.TextSanitizer
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	subscribers repository.SubscriberRepository,
	sanitizer security.TextSanitizer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		posts:       posts,
		comments:    comments,
		subscribers: subscribers,
		sanitizer:   sanitizer,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// ResolveUniqueSlug は候補スラッグが他の記事と重複しないよう "-2", "-3", … を付与して返す。
// currentIDの記事自身が持つスラッグは重複として扱わない。
func (s *Service) ResolveUniqueSlug(ctx context.Context, requested, currentID string) (string, error) {
	candidate := requested
	for suffix := 2; ; suffix++ {
		existing, err := s.posts.FindBySlug(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("スラッグの重複確認に失敗しました: %w", err)
		}
		if existing == nil || (currentID != "" && existing.ID == currentID) {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", requested, suffix)
	}
}

// CreatePost は記事を正規化・スラッグ一意化して作成し、割り当てたIDを返す。
// 一意化と保存の間に他の保存が割り込んだ場合はスラッグを再解決して再試行する。
func (s *Service) CreatePost(ctx context.Context, input model.PostInput) (string, error) {
	normalized, err := normalizePostInput(input, s.now)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	post := *normalized
	post.ID = s.newID()
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := s.saveWithUniqueSlug(ctx, &post, normalized.Slug, "", s.posts.Create); err != nil {
		return "", err
	}
	return post.ID, nil
}

// UpdatePost は既存記事の正規化済みフィールドを全置換する。スラッグは再解決される。
func (s *Service) UpdatePost(ctx context.Context, id string, input model.PostInput) (string, error) {
	existing, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return "", model.NewPostNotFoundError()
	}

	normalized, err := normalizePostInput(input, s.now)
	if err != nil {
		return "", err
	}

	post := *normalized
	post.ID = existing.ID
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = s.now().UTC()

	if err := s.saveWithUniqueSlug(ctx, &post, normalized.Slug, existing.ID, s.posts.Update); err != nil {
		return "", err
	}
	return existing.ID, nil
}

// saveWithUniqueSlug はスラッグを一意化してsaveを呼ぶ。ErrConflictの場合は最大maxSlugAttempts回やり直す。
func (s *Service) saveWithUniqueSlug(
	ctx context.Context,
	post *model.Post,
	requested, currentID string,
	save func(context.Context, *model.Post) error,
) error {
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		slug, err := s.ResolveUniqueSlug(ctx, requested, currentID)
		if err != nil {
			return err
		}
		post.Slug = slug

		err = save(ctx, post)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("記事の保存に失敗しました: %w", err)
		}
		s.logger.WarnContext(ctx, "スラッグが競合したため再解決します",
			slog.String("slug", slug),
			slog.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("スラッグ %q を%d回試行しても確定できませんでした: %w", requested, maxSlugAttempts, repository.ErrConflict)
}

// AddComment は公開中の記事にコメントを追加する。
// 記事が存在しないか下書きの場合はPOST_UNAVAILABLE、名前または本文が空の場合は検証エラーを返す。
func (s *Service) AddComment(ctx context.Context, postID, author, message string) (*model.Comment, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if post == nil || !post.IsPublished() {
		return nil, model.NewPostUnavailableError()
	}

	author = strings.TrimSpace(author)
	message = strings.TrimSpace(message)
	if author == "" || message == "" || s.markupOnly(author) || s.markupOnly(message) {
		return nil, model.NewValidationError("Name and comment are required.")
	}

	createdAt, createdAtTs := NormalizeISODatetime("", s.now())
	comment := &model.Comment{
		ID:          s.newID(),
		PostID:      post.ID,
		Author:      author,
		Message:     message,
		CreatedAt:   createdAt,
		CreatedAtTs: createdAtTs,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの保存に失敗しました: %w", err)
	}
	return comment, nil
}

// markupOnly はタグを除くと何も残らない入力かどうかを返す。
// 保存する文字列はトリムのみで、表示側でエスケープする。
func (s *Service) markupOnly(v string) bool {
	return s.sanitizer.SanitizeText(v) == ""
}

// AddNewsletterSubscriber はメールアドレスを正規化して購読者を登録する。
// 既に登録済みの場合はalreadySubscribed=trueを返し、レコードは増やさない。
func (s *Service) AddNewsletterSubscriber(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return false, model.NewInvalidEmailError()
	}

	existing, err := s.subscribers.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return true, nil
	}

	err = s.subscribers.Create(ctx, &model.NewsletterSubscriber{
		ID:        s.newID(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrConflict) {
		// 確認後に同じアドレスが並行して登録された
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("購読者の登録に失敗しました: %w", err)
	}
	return false, nil
}

// ListPosts は記事一覧を公開日の降順で返す。
func (s *Service) ListPosts(ctx context.Context, includeDrafts bool) ([]*model.Post, error) {
	posts, err := s.posts.List(ctx, includeDrafts)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// ListFeaturedPosts は公開中のおすすめ記事を最大limit件返す。limitは[1, 12]に丸める。
func (s *Service) ListFeaturedPosts(ctx context.Context, limit int) ([]*model.Post, error) {
	posts, err := s.posts.ListFeatured(ctx, ClampFeaturedLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("おすすめ記事の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// GetPost は記事を取得する。存在しない場合はnilを返す。
func (s *Service) GetPost(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return post, nil
}

// ListCategories は公開中の記事のカテゴリを重複なしで返す。
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	posts, err := s.posts.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return distinctCategories(posts), nil
}

// ListComments は記事のコメントを作成日時の降順で返す。
func (s *Service) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	comments, err := s.comments.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// AdminStats は管理画面向けの集計値を返す。
// カテゴリ数は下書きを含む全記事が対象で、公開カテゴリ一覧とは範囲が異なる。
func (s *Service) AdminStats(ctx context.Context) (*model.BlogStats, error) {
	posts, err := s.posts.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	commentCount, err := s.comments.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("コメント数の取得に失敗しました: %w", err)
	}
	return buildStats(posts, commentCount), nil
}

func buildStats(posts []*model.Post, commentCount int) *model.BlogStats {
	stats := &model.BlogStats{
		TotalPosts:    len(posts),
		TotalComments: commentCount,
		Categories:    len(distinctCategories(posts)),
	}
	for _, p := range posts {
		if p.IsPublished() {
			stats.PublishedPosts++
		}
	}
	return stats
}

// distinctCategories は出現順を保ってカテゴリの重複を除く。
func distinctCategories(posts []*model.Post) []string {
	seen := make(map[string]bool, len(posts))
	categories := []string{}
	for _, p := range posts {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	return categories
}
