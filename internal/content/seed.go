package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sudhamayam/portfolio/internal/model"
	"github.com/sudhamayam/portfolio/internal/repository"
	"github.com/sudhamayam/portfolio/internal/sitedata"
)

// SeedResult はシードで新たに挿入した件数。
type SeedResult struct {
	InsertedPosts    int
	InsertedComments int
}

// SeedDefaults は既定の記事とコメントのうち未登録のものだけを挿入する。
// 記事は正規化後のスラッグで、コメントは(作成日時ミリ秒, 名前, 本文, ISO文字列)の一致で既存判定する。
// 何度実行しても重複データは作られない。
func (s *Service) SeedDefaults(ctx context.Context, posts []sitedata.DefaultPost, comments []sitedata.DefaultComment) (SeedResult, error) {
	var result SeedResult
	legacyToID := make(map[string]string, len(posts))

	for _, dp := range posts {
		normalized, err := normalizePostInput(dp.Input(), s.now)
		if err != nil {
			return result, fmt.Errorf("既定記事 %q の正規化に失敗しました: %w", dp.ID, err)
		}

		existing, err := s.posts.FindBySlug(ctx, normalized.Slug)
		if err != nil {
			return result, fmt.Errorf("既定記事 %q の確認に失敗しました: %w", dp.ID, err)
		}
		if existing != nil {
			if dp.ID != "" {
				legacyToID[dp.ID] = existing.ID
			}
			continue
		}

		now := s.now().UTC()
		post := *normalized
		post.ID = s.newID()
		post.CreatedAt = now
		post.UpdatedAt = now

		if err := s.posts.Create(ctx, &post); err != nil {
			if !errors.Is(err, repository.ErrConflict) {
				return result, fmt.Errorf("既定記事 %q の挿入に失敗しました: %w", dp.ID, err)
			}
			// 別プロセスのシードが同じスラッグを先に挿入した
			winner, err := s.posts.FindBySlug(ctx, post.Slug)
			if err != nil || winner == nil {
				return result, fmt.Errorf("既定記事 %q の再確認に失敗しました: %w", dp.ID, errors.Join(repository.ErrConflict, err))
			}
			if dp.ID != "" {
				legacyToID[dp.ID] = winner.ID
			}
			continue
		}

		result.InsertedPosts++
		if dp.ID != "" {
			legacyToID[dp.ID] = post.ID
		}
	}

	for _, dc := range comments {
		postID, ok := legacyToID[dc.PostID]
		if !ok {
			continue
		}

		author := strings.TrimSpace(dc.Author)
		message := strings.TrimSpace(dc.Message)
		if author == "" || message == "" {
			continue
		}

		createdAt, createdAtTs := NormalizeISODatetime(dc.CreatedAt, s.now())

		existing, err := s.comments.ListByPostID(ctx, postID)
		if err != nil {
			return result, fmt.Errorf("既定コメント %q の確認に失敗しました: %w", dc.ID, err)
		}
		if hasComment(existing, createdAtTs, author, message, createdAt) {
			continue
		}

		err = s.comments.Create(ctx, &model.Comment{
			ID:          s.newID(),
			PostID:      postID,
			Author:      author,
			Message:     message,
			CreatedAt:   createdAt,
			CreatedAtTs: createdAtTs,
		})
		if err != nil {
			return result, fmt.Errorf("既定コメント %q の挿入に失敗しました: %w", dc.ID, err)
		}
		result.InsertedComments++
	}

	s.logger.InfoContext(ctx, "既定データのシードが完了しました",
		slog.Int("inserted_posts", result.InsertedPosts),
		slog.Int("inserted_comments", result.InsertedComments),
	)
	return result, nil
}

func hasComment(comments []*model.Comment, ts int64, author, message, iso string) bool {
	for _, c := range comments {
		if c.CreatedAtTs == ts && c.Author == author && c.Message == message && c.CreatedAt == iso {
			return true
		}
	}
	return false
}
