package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sudhamayam/portfolio/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// postColumns は記事のSELECT列。scanPostの順序と一致させること。
const postColumns = `id, slug, title, excerpt, content, category, published_at, published_at_ts,
		        read_time_minutes, cover_gradient, status, featured, seo_description,
		        created_at, updated_at`

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPost は1行分の記事を読み取る。
func scanPost(row rowScanner) (*model.Post, error) {
	post := &model.Post{}
	var content pq.StringArray
	err := row.Scan(
		&post.ID, &post.Slug, &post.Title, &post.Excerpt, &content,
		&post.Category, &post.PublishedAt, &post.PublishedAtTs,
		&post.ReadTimeMinutes, &post.CoverGradient, &post.Status, &post.Featured,
		&post.SEODescription, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	post.Content = []string(content)
	return post, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	// UUIDでないIDはクエリするまでもなく存在しない
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	post, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return post, nil
}

// FindBySlug はスラッグで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スラッグによる記事の検索に失敗しました: %w", err)
	}
	return post, nil
}

// List は記事一覧をpublished_at_ts降順で返す。
func (r *PostgresPostRepo) List(ctx context.Context, includeDrafts bool) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = 'published' ORDER BY published_at_ts DESC`
	if includeDrafts {
		query = `SELECT ` + postColumns + ` FROM posts ORDER BY published_at_ts DESC`
	}
	return r.queryPosts(ctx, query)
}

// ListFeatured は公開中かつfeaturedの記事をpublished_at_ts降順で最大limit件返す。
func (r *PostgresPostRepo) ListFeatured(ctx context.Context, limit int) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE featured = TRUE AND status = 'published'
		 ORDER BY published_at_ts DESC
		 LIMIT $1`,
		limit,
	)
}

func (r *PostgresPostRepo) queryPosts(ctx context.Context, query string, args ...any) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("記事の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}
	return posts, nil
}

// Create は記事を作成する。スラッグ重複時はErrConflictを返す。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, slug, title, excerpt, content, category, published_at,
		                    published_at_ts, read_time_minutes, cover_gradient, status,
		                    featured, seo_description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		post.ID, post.Slug, post.Title, post.Excerpt, pq.Array(post.Content),
		post.Category, post.PublishedAt, post.PublishedAtTs, post.ReadTimeMinutes,
		post.CoverGradient, post.Status, post.Featured, post.SEODescription,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("スラッグ %q は使用済みです: %w", post.Slug, ErrConflict)
		}
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は記事の正規化済みフィールドを全置換する。スラッグ重複時はErrConflictを返す。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET
		    slug = $2, title = $3, excerpt = $4, content = $5, category = $6,
		    published_at = $7, published_at_ts = $8, read_time_minutes = $9,
		    cover_gradient = $10, status = $11, featured = $12,
		    seo_description = $13, updated_at = $14
		 WHERE id = $1`,
		post.ID, post.Slug, post.Title, post.Excerpt, pq.Array(post.Content),
		post.Category, post.PublishedAt, post.PublishedAtTs, post.ReadTimeMinutes,
		post.CoverGradient, post.Status, post.Featured, post.SEODescription,
		post.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("スラッグ %q は使用済みです: %w", post.Slug, ErrConflict)
		}
		return fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	return nil
}

// isUniqueViolation はエラーがPostgreSQLの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
