package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sudhamayam/portfolio/internal/model"
)

// MongoSubscriberRepo はMongoDBを使用したニュースレター購読者リポジトリ。
type MongoSubscriberRepo struct {
	subscribers *mongo.Collection
}

// NewMongoSubscriberRepo はMongoSubscriberRepoを生成する。
func NewMongoSubscriberRepo(db *mongo.Database) *MongoSubscriberRepo {
	return &MongoSubscriberRepo{subscribers: db.Collection(SubscribersCollection)}
}

// FindByEmail は正規化済みメールアドレスで購読者を検索する。見つからない場合はnilを返す。
func (r *MongoSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	var doc subscriberDoc
	if err := r.subscribers.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc); err != nil {
		if isMongoNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}
	return &model.NewsletterSubscriber{ID: doc.ID, Email: doc.Email, CreatedAt: doc.CreatedAt}, nil
}

// Create は購読者を作成する。メールアドレス重複時はErrConflictを返す。
func (r *MongoSubscriberRepo) Create(ctx context.Context, subscriber *model.NewsletterSubscriber) error {
	doc := subscriberDoc{
		ID:        subscriber.ID,
		Email:     subscriber.Email,
		CreatedAt: subscriber.CreatedAt.UTC(),
	}
	if _, err := r.subscribers.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("購読者 %q は登録済みです: %w", subscriber.Email, ErrConflict)
		}
		return fmt.Errorf("購読者の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SubscriberRepository = (*MongoSubscriberRepo)(nil)
