// Package importer は外部のRSS/Atomフィードを下書き記事として取り込む。
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/sudhamayam/portfolio/internal/content"
	"github.com/sudhamayam/portfolio/internal/metrics"
	"github.com/sudhamayam/portfolio/internal/model"
	"github.com/sudhamayam/portfolio/internal/security"
)

// PostCreator は記事を作成するサービスのインターフェース。
// content.Serviceが実装する。
type PostCreator interface {
	CreatePost(ctx context.Context, input model.PostInput) (string, error)
}

// SlugFinder は既存記事のスラッグ検索のインターフェース。
// repository.PostRepositoryの部分集合。
type SlugFinder interface {
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)
}

// Result は取り込みの結果。
type Result struct {
	Imported int
	Skipped  int
	Failed   int
	PostIDs  []string
}

// Config は取り込み時のHTTP制限。
type Config struct {
	Timeout time.Duration
	MaxSize int64
}

// Importer はフィードを取得し、各エントリを下書き記事として作成する。
type Importer struct {
	creator   PostCreator
	slugs     SlugFinder
	guard     security.URLGuard
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	config    Config
	now       func() time.Time
}

// New はImporterを生成する。
func New(
	creator PostCreator,
	slugs SlugFinder,
	guard security.URLGuard,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	config Config,
) *Importer {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		creator:   creator,
		slugs:     slugs,
		guard:     guard,
		sanitizer: sanitizer,
		metrics:   collector,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Import はfeedURLのフィードを取り込む。
// スラッグが既存記事と重複するエントリ、タイトルか本文が空のエントリはスキップする。
// 個別エントリの作成失敗は記録して残りの取り込みを続け、最後にエラーとして返す。
func (im *Importer) Import(ctx context.Context, feedURL string) (Result, error) {
	var result Result
	start := time.Now()

	feed, err := im.fetch(ctx, feedURL)
	if err != nil {
		return result, err
	}

	now := im.now()
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		input, ok := convertItem(item, im.sanitizer, now)
		if !ok {
			im.logger.Info("本文のないエントリをスキップしました", slog.String("link", item.Link))
			result.Skipped++
			continue
		}

		existing, err := im.slugs.FindBySlug(ctx, input.Slug)
		if err != nil {
			im.logger.Error("スラッグの確認に失敗しました",
				slog.String("slug", input.Slug),
				slog.String("error", err.Error()),
			)
			result.Failed++
			continue
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		id, err := im.creator.CreatePost(ctx, input)
		if err != nil {
			im.logger.Error("記事の作成に失敗しました",
				slog.String("slug", input.Slug),
				slog.String("error", err.Error()),
			)
			result.Failed++
			continue
		}
		result.Imported++
		result.PostIDs = append(result.PostIDs, id)
	}

	im.metrics.RecordPostsImported(result.Imported, result.Skipped)
	im.logger.Info("フィードの取り込みが完了しました",
		slog.String("feed_url", feedURL),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	if result.Failed > 0 {
		return result, fmt.Errorf("%d of %d entries failed to import", result.Failed, len(feed.Items))
	}
	return result, nil
}

// fetch はSSRF防止付きクライアントでフィードを取得してパースする。
func (im *Importer) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if err := im.guard.ValidateURL(feedURL); err != nil {
		return nil, fmt.Errorf("feed URL rejected: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Portfolio/1.0 Feed Importer")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := im.guard.NewSafeClient(im.config.Timeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	// 上限を1バイト超えて読めたらサイズ超過
	body, err := io.ReadAll(io.LimitReader(resp.Body, im.config.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	if int64(len(body)) > im.config.MaxSize {
		return nil, fmt.Errorf("feed exceeds %d bytes", im.config.MaxSize)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

var _ PostCreator = (*content.Service)(nil)
