package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sudhamayam/portfolio/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// ListByPostID は記事のコメントをcreated_at_ts降順で返す。同一時刻は挿入が新しい順（seq降順）。
func (r *PostgresCommentRepo) ListByPostID(ctx context.Context, postID string) ([]*model.Comment, error) {
	comments := []*model.Comment{}
	if _, err := uuid.Parse(postID); err != nil {
		return comments, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, author, message, created_at, created_at_ts
		 FROM comments
		 WHERE post_id = $1
		 ORDER BY created_at_ts DESC, seq DESC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.Author, &c.Message, &c.CreatedAt, &c.CreatedAtTs); err != nil {
			return nil, fmt.Errorf("コメントの読み取りに失敗しました: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}
	return comments, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author, message, created_at, created_at_ts)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.PostID, comment.Author, comment.Message,
		comment.CreatedAt, comment.CreatedAtTs,
	)
	if err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// Count は全コメント数を返す。
func (r *PostgresCommentRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM comments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("コメント数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
