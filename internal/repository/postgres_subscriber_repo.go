package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sudhamayam/portfolio/internal/model"
)

// PostgresSubscriberRepo はPostgreSQLを使用したニュースレター購読者リポジトリ。
type PostgresSubscriberRepo struct {
	db *sql.DB
}

// NewPostgresSubscriberRepo はPostgresSubscriberRepoを生成する。
func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

// FindByEmail は正規化済みメールアドレスで購読者を検索する。見つからない場合はnilを返す。
func (r *PostgresSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	s := &model.NewsletterSubscriber{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM newsletter_subscribers WHERE email = $1`,
		email,
	).Scan(&s.ID, &s.Email, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}
	return s, nil
}

// Create は購読者を作成する。メールアドレス重複時はErrConflictを返す。
func (r *PostgresSubscriberRepo) Create(ctx context.Context, subscriber *model.NewsletterSubscriber) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO newsletter_subscribers (id, email, created_at) VALUES ($1, $2, $3)`,
		subscriber.ID, subscriber.Email, subscriber.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("購読者 %q は登録済みです: %w", subscriber.Email, ErrConflict)
		}
		return fmt.Errorf("購読者の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)
