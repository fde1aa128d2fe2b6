package repository

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sudhamayam/portfolio/internal/model"
)

// MongoDBのコレクション名。
const (
	PostsCollection       = "posts"
	CommentsCollection    = "comments"
	SubscribersCollection = "newsletter_subscribers"
	SessionsCollection    = "sessions"
)

// postDoc はpostsコレクションのドキュメント表現。_idにはUUID文字列を使う。
type postDoc struct {
	ID              string    `bson:"_id"`
	Slug            string    `bson:"slug"`
	Title           string    `bson:"title"`
	Excerpt         string    `bson:"excerpt"`
	Content         []string  `bson:"content"`
	Category        string    `bson:"category"`
	PublishedAt     string    `bson:"published_at"`
	PublishedAtTs   int64     `bson:"published_at_ts"`
	ReadTimeMinutes int       `bson:"read_time_minutes"`
	CoverGradient   string    `bson:"cover_gradient"`
	Status          string    `bson:"status"`
	Featured        bool      `bson:"featured"`
	SEODescription  string    `bson:"seo_description"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func postToDoc(p *model.Post) postDoc {
	content := p.Content
	if content == nil {
		content = []string{}
	}
	return postDoc{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		Excerpt:         p.Excerpt,
		Content:         content,
		Category:        p.Category,
		PublishedAt:     p.PublishedAt,
		PublishedAtTs:   p.PublishedAtTs,
		ReadTimeMinutes: p.ReadTimeMinutes,
		CoverGradient:   p.CoverGradient,
		Status:          string(p.Status),
		Featured:        p.Featured,
		SEODescription:  p.SEODescription,
		CreatedAt:       p.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt:       p.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
}

func (d postDoc) toModel() *model.Post {
	return &model.Post{
		ID:              d.ID,
		Slug:            d.Slug,
		Title:           d.Title,
		Excerpt:         d.Excerpt,
		Content:         d.Content,
		Category:        d.Category,
		PublishedAt:     d.PublishedAt,
		PublishedAtTs:   d.PublishedAtTs,
		ReadTimeMinutes: d.ReadTimeMinutes,
		CoverGradient:   d.CoverGradient,
		Status:          model.PostStatus(d.Status),
		Featured:        d.Featured,
		SEODescription:  d.SEODescription,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// commentDoc はcommentsコレクションのドキュメント表現。
type commentDoc struct {
	ID          string             `bson:"_id"`
	PostID      string             `bson:"post_id"`
	Author      string             `bson:"author"`
	Message     string             `bson:"message"`
	CreatedAt   string             `bson:"created_at"`
	CreatedAtTs int64              `bson:"created_at_ts"`
	Seq         primitive.ObjectID `bson:"seq"` // 同一ミリ秒のコメントを挿入順に並べる
}

func (d commentDoc) toModel() *model.Comment {
	return &model.Comment{
		ID:          d.ID,
		PostID:      d.PostID,
		Author:      d.Author,
		Message:     d.Message,
		CreatedAt:   d.CreatedAt,
		CreatedAtTs: d.CreatedAtTs,
	}
}

// subscriberDoc はnewsletter_subscribersコレクションのドキュメント表現。
type subscriberDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"created_at"`
}

// sessionDoc はsessionsコレクションのドキュメント表現。
type sessionDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// isMongoNotFound はFindOneの結果が0件かどうかを判定する。
func isMongoNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
