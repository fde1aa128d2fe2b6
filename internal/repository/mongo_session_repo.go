package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sudhamayam/portfolio/internal/model"
)

// MongoSessionRepo はMongoDBを使用したセッションリポジトリ。
// expires_atにはTTLインデックスが張られるが、削除タイミングは保証されないため
// 読み取り時にも期限を判定する。
type MongoSessionRepo struct {
	sessions *mongo.Collection
	now      func() time.Time
}

// NewMongoSessionRepo はMongoSessionRepoを生成する。
func NewMongoSessionRepo(db *mongo.Database) *MongoSessionRepo {
	return &MongoSessionRepo{sessions: db.Collection(SessionsCollection), now: time.Now}
}

// Create はセッションを作成する。
func (r *MongoSessionRepo) Create(ctx context.Context, session *model.Session) error {
	doc := sessionDoc{
		ID:        session.ID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt.UTC(),
		CreatedAt: session.CreatedAt.UTC(),
	}
	if _, err := r.sessions.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *MongoSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: r.now().UTC()}}},
	}
	var doc sessionDoc
	if err := r.sessions.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isMongoNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &model.Session{
		ID:        doc.ID,
		Email:     doc.Email,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *MongoSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.sessions.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired はnow時点で期限切れのセッションを削除し、削除件数を返す。
func (r *MongoSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: now.UTC()}}}}
	res, err := r.sessions.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}

// NewMongoRepositories はMongoDBデータベースからリポジトリ一式を構築する。
func NewMongoRepositories(db *mongo.Database) *ContentRepositories {
	return &ContentRepositories{
		Posts:       NewMongoPostRepo(db),
		Comments:    NewMongoCommentRepo(db),
		Subscribers: NewMongoSubscriberRepo(db),
		Sessions:    NewMongoSessionRepo(db),
	}
}

// compile-time interface check
var _ SessionRepository = (*MongoSessionRepo)(nil)
