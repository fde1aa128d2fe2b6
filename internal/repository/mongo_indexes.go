package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureMongoIndexes はリポジトリが前提とするインデックスを作成する。
//   - posts: slug一意、(status, published_at_ts desc)、(featured, published_at_ts desc)
//   - comments: (post_id, created_at_ts desc, seq desc)
//   - newsletter_subscribers: email一意
//   - sessions: expires_atのTTL
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		PostsCollection: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetName("uq_slug").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "published_at_ts", Value: -1}},
				Options: options.Index().SetName("status_published_desc"),
			},
			{
				Keys:    bson.D{{Key: "featured", Value: 1}, {Key: "published_at_ts", Value: -1}},
				Options: options.Index().SetName("featured_published_desc"),
			},
		},
		CommentsCollection: {
			{
				Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "created_at_ts", Value: -1}, {Key: "seq", Value: -1}},
				Options: options.Index().SetName("post_created_seq_desc"),
			},
		},
		SubscribersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uq_email").SetUnique(true),
			},
		},
		SessionsCollection: {
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo ensure indexes (%s): %w", collection, err)
		}
	}
	return nil
}
