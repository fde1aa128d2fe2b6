package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sudhamayam/portfolio/internal/model"
)

// MongoCommentRepo はMongoDBを使用したコメントリポジトリ。
type MongoCommentRepo struct {
	comments *mongo.Collection
}

// NewMongoCommentRepo はMongoCommentRepoを生成する。
func NewMongoCommentRepo(db *mongo.Database) *MongoCommentRepo {
	return &MongoCommentRepo{comments: db.Collection(CommentsCollection)}
}

// ListByPostID は記事のコメントをcreated_at_ts降順で返す。同一時刻は挿入が新しい順。
func (r *MongoCommentRepo) ListByPostID(ctx context.Context, postID string) ([]*model.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at_ts", Value: -1}, {Key: "seq", Value: -1}})
	cur, err := r.comments.Find(ctx, bson.D{{Key: "post_id", Value: postID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer cur.Close(ctx)

	comments := []*model.Comment{}
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("コメントの読み取りに失敗しました: %w", err)
		}
		comments = append(comments, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}
	return comments, nil
}

// Create はコメントを作成する。
func (r *MongoCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	doc := commentDoc{
		ID:          comment.ID,
		PostID:      comment.PostID,
		Author:      comment.Author,
		Message:     comment.Message,
		CreatedAt:   comment.CreatedAt,
		CreatedAtTs: comment.CreatedAtTs,
		Seq:         primitive.NewObjectID(),
	}
	if _, err := r.comments.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// Count は全コメント数を返す。
func (r *MongoCommentRepo) Count(ctx context.Context) (int, error) {
	n, err := r.comments.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("コメント数の取得に失敗しました: %w", err)
	}
	return int(n), nil
}

// compile-time interface check
var _ CommentRepository = (*MongoCommentRepo)(nil)
