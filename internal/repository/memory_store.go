package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sudhamayam/portfolio/internal/model"
)

// MemoryStore はプロセス内メモリに保持するリポジトリ実装。
// 永続ストア未設定時のセッション保存先と、テスト用のストアとして使う。
// 一意制約（スラッグ、メールアドレス）はPostgreSQL/MongoDBと同様に検査する。
type MemoryStore struct {
	mu          sync.RWMutex
	posts       map[string]*model.Post
	comments    []*model.Comment
	subscribers map[string]*model.NewsletterSubscriber
	sessions    map[string]*model.Session
	now         func() time.Time
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:       make(map[string]*model.Post),
		subscribers: make(map[string]*model.NewsletterSubscriber),
		sessions:    make(map[string]*model.Session),
		now:         time.Now,
	}
}

// Repositories はMemoryStoreを各リポジトリインターフェースとして公開する。
func (s *MemoryStore) Repositories() *ContentRepositories {
	return &ContentRepositories{
		Posts:       memoryPosts{s},
		Comments:    memoryComments{s},
		Subscribers: memorySubscribers{s},
		Sessions:    memorySessions{s},
	}
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.Content = append([]string(nil), p.Content...)
	return &c
}

type memoryPosts struct{ s *MemoryStore }

func (r memoryPosts) FindByID(_ context.Context, id string) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, nil
}

func (r memoryPosts) FindBySlug(_ context.Context, slug string) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.posts {
		if p.Slug == slug {
			return clonePost(p), nil
		}
	}
	return nil, nil
}

func (r memoryPosts) List(_ context.Context, includeDrafts bool) ([]*model.Post, error) {
	return r.filter(func(p *model.Post) bool {
		return includeDrafts || p.IsPublished()
	}, 0), nil
}

func (r memoryPosts) ListFeatured(_ context.Context, limit int) ([]*model.Post, error) {
	return r.filter(func(p *model.Post) bool {
		return p.Featured && p.IsPublished()
	}, limit), nil
}

func (r memoryPosts) filter(keep func(*model.Post) bool, limit int) []*model.Post {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := []*model.Post{}
	for _, p := range r.s.posts {
		if keep(p) {
			posts = append(posts, clonePost(p))
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].PublishedAtTs != posts[j].PublishedAtTs {
			return posts[i].PublishedAtTs > posts[j].PublishedAtTs
		}
		return posts[i].ID < posts[j].ID
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}

func (r memoryPosts) slugTaken(slug, exceptID string) bool {
	for id, p := range r.s.posts {
		if p.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (r memoryPosts) Create(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[post.ID]; ok || r.slugTaken(post.Slug, "") {
		return ErrConflict
	}
	r.s.posts[post.ID] = clonePost(post)
	return nil
}

func (r memoryPosts) Update(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.posts[post.ID]
	if !ok {
		return nil
	}
	if r.slugTaken(post.Slug, post.ID) {
		return ErrConflict
	}
	updated := clonePost(post)
	updated.CreatedAt = existing.CreatedAt
	r.s.posts[post.ID] = updated
	return nil
}

type memoryComments struct{ s *MemoryStore }

func (r memoryComments) ListByPostID(_ context.Context, postID string) ([]*model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	// 同一ミリ秒のコメントは後から追加したものを先にする
	comments := []*model.Comment{}
	for i := len(r.s.comments) - 1; i >= 0; i-- {
		if c := r.s.comments[i]; c.PostID == postID {
			cc := *c
			comments = append(comments, &cc)
		}
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAtTs > comments[j].CreatedAtTs
	})
	return comments, nil
}

func (r memoryComments) Create(_ context.Context, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *comment
	r.s.comments = append(r.s.comments, &c)
	return nil
}

func (r memoryComments) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.comments), nil
}

type memorySubscribers struct{ s *MemoryStore }

func (r memorySubscribers) FindByEmail(_ context.Context, email string) (*model.NewsletterSubscriber, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sub, ok := r.s.subscribers[email]; ok {
		c := *sub
		return &c, nil
	}
	return nil, nil
}

func (r memorySubscribers) Create(_ context.Context, subscriber *model.NewsletterSubscriber) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subscribers[subscriber.Email]; ok {
		return ErrConflict
	}
	c := *subscriber
	r.s.subscribers[subscriber.Email] = &c
	return nil
}

type memorySessions struct{ s *MemoryStore }

func (r memorySessions) Create(_ context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *session
	r.s.sessions[session.ID] = &c
	return nil
}

func (r memorySessions) FindByID(_ context.Context, id string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[id]
	if !ok || !sess.ExpiresAt.After(r.s.now()) {
		return nil, nil
	}
	c := *sess
	return &c, nil
}

func (r memorySessions) DeleteByID(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r memorySessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, sess := range r.s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(r.s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// compile-time interface checks
var (
	_ PostRepository       = memoryPosts{}
	_ CommentRepository    = memoryComments{}
	_ SubscriberRepository = memorySubscribers{}
	_ SessionRepository    = memorySessions{}
)
