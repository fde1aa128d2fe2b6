package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sudhamayam/portfolio/internal/model"
)

// MongoPostRepo はMongoDBを使用した記事リポジトリ。
type MongoPostRepo struct {
	posts *mongo.Collection
}

// NewMongoPostRepo はMongoPostRepoを生成する。
func NewMongoPostRepo(db *mongo.Database) *MongoPostRepo {
	return &MongoPostRepo{posts: db.Collection(PostsCollection)}
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *MongoPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// FindBySlug はスラッグで記事を検索する。見つからない場合はnilを返す。
func (r *MongoPostRepo) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return r.findOne(ctx, bson.D{{Key: "slug", Value: slug}})
}

func (r *MongoPostRepo) findOne(ctx context.Context, filter bson.D) (*model.Post, error) {
	var doc postDoc
	if err := r.posts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isMongoNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return doc.toModel(), nil
}

// List は記事一覧をpublished_at_ts降順で返す。
func (r *MongoPostRepo) List(ctx context.Context, includeDrafts bool) ([]*model.Post, error) {
	filter := bson.D{{Key: "status", Value: string(model.PostStatusPublished)}}
	if includeDrafts {
		filter = bson.D{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "published_at_ts", Value: -1}})
	return r.find(ctx, filter, opts)
}

// ListFeatured は公開中かつfeaturedの記事をpublished_at_ts降順で最大limit件返す。
func (r *MongoPostRepo) ListFeatured(ctx context.Context, limit int) ([]*model.Post, error) {
	filter := bson.D{
		{Key: "featured", Value: true},
		{Key: "status", Value: string(model.PostStatusPublished)},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "published_at_ts", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *MongoPostRepo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*model.Post, error) {
	cur, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer cur.Close(ctx)

	posts := []*model.Post{}
	for cur.Next(ctx) {
		var doc postDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("記事の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}
	return posts, nil
}

// Create は記事を作成する。スラッグ重複時はErrConflictを返す。
func (r *MongoPostRepo) Create(ctx context.Context, post *model.Post) error {
	if _, err := r.posts.InsertOne(ctx, postToDoc(post)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("スラッグ %q は使用済みです: %w", post.Slug, ErrConflict)
		}
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は記事の正規化済みフィールドを全置換する。スラッグ重複時はErrConflictを返す。
func (r *MongoPostRepo) Update(ctx context.Context, post *model.Post) error {
	doc := postToDoc(post)
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "slug", Value: doc.Slug},
		{Key: "title", Value: doc.Title},
		{Key: "excerpt", Value: doc.Excerpt},
		{Key: "content", Value: doc.Content},
		{Key: "category", Value: doc.Category},
		{Key: "published_at", Value: doc.PublishedAt},
		{Key: "published_at_ts", Value: doc.PublishedAtTs},
		{Key: "read_time_minutes", Value: doc.ReadTimeMinutes},
		{Key: "cover_gradient", Value: doc.CoverGradient},
		{Key: "status", Value: doc.Status},
		{Key: "featured", Value: doc.Featured},
		{Key: "seo_description", Value: doc.SEODescription},
		{Key: "updated_at", Value: doc.UpdatedAt},
	}}}

	if _, err := r.posts.UpdateByID(ctx, post.ID, update); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("スラッグ %q は使用済みです: %w", post.Slug, ErrConflict)
		}
		return fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*MongoPostRepo)(nil)
