package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sudhamayam/portfolio/internal/model"
	"github.com/sudhamayam/portfolio/internal/repository"
	"github.com/sudhamayam/portfolio/internal/security"
)

// --- テスト用モック ---

// mockPostRepo は関数フィールドで振る舞いを差し替えられるPostRepository。
// 未設定のメソッドはbaseに委譲する。
type mockPostRepo struct {
	base         repository.PostRepository
	findByIDFn   func(ctx context.Context, id string) (*model.Post, error)
	findBySlugFn func(ctx context.Context, slug string) (*model.Post, error)
	listFn       func(ctx context.Context, includeDrafts bool) ([]*model.Post, error)
	createFn     func(ctx context.Context, post *model.Post) error
	updateFn     func(ctx context.Context, post *model.Post) error
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return m.base.FindByID(ctx, id)
}

func (m *mockPostRepo) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	if m.findBySlugFn != nil {
		return m.findBySlugFn(ctx, slug)
	}
	return m.base.FindBySlug(ctx, slug)
}

func (m *mockPostRepo) List(ctx context.Context, includeDrafts bool) ([]*model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx, includeDrafts)
	}
	return m.base.List(ctx, includeDrafts)
}

func (m *mockPostRepo) ListFeatured(ctx context.Context, limit int) ([]*model.Post, error) {
	return m.base.ListFeatured(ctx, limit)
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return m.base.Create(ctx, post)
}

func (m *mockPostRepo) Update(ctx context.Context, post *model.Post) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return m.base.Update(ctx, post)
}

// mockSubscriberRepo はSubscriberRepositoryのモック。
type mockSubscriberRepo struct {
	findByEmailFn func(ctx context.Context, email string) (*model.NewsletterSubscriber, error)
	createFn      func(ctx context.Context, subscriber *model.NewsletterSubscriber) error
}

func (m *mockSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockSubscriberRepo) Create(ctx context.Context, subscriber *model.NewsletterSubscriber) error {
	if m.createFn != nil {
		return m.createFn(ctx, subscriber)
	}
	return nil
}

// testClock は呼ばれるたびに1秒進む時計。
type testClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService はインメモリストアを使うServiceを生成する。IDは連番、時計は単調増加。
func newTestService(t *testing.T, repos *repository.ContentRepositories) *Service {
	t.Helper()
	if repos == nil {
		repos = repository.NewMemoryStore().Repositories()
	}
	svc := NewService(repos.Posts, repos.Comments, repos.Subscribers, security.NewTextSanitizer(), discardLogger())
	clock := &testClock{cur: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	var mu sync.Mutex
	seq := 0
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError with code %s, got %v", code, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- CreatePost / UpdatePost ---

func TestService_CreatePost_AssignsUniqueSlugs(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	wantSlugs := []string{"hello-world", "hello-world-2", "hello-world-3"}
	for i, want := range wantSlugs {
		id, err := svc.CreatePost(ctx, validInput())
		if err != nil {
			t.Fatalf("CreatePost #%d: %v", i+1, err)
		}
		post, err := svc.GetPost(ctx, id)
		if err != nil || post == nil {
			t.Fatalf("GetPost(%s) = %v, %v", id, post, err)
		}
		if post.Slug != want {
			t.Errorf("post #%d slug = %q, want %q", i+1, post.Slug, want)
		}
	}
}

func TestService_CreatePost_ValidationError(t *testing.T) {
	svc := newTestService(t, nil)
	input := validInput()
	input.Title = ""

	_, err := svc.CreatePost(context.Background(), input)
	assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
}

func TestService_CreatePost_SetsTimestamps(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	id, err := svc.CreatePost(ctx, validInput())
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	post, _ := svc.GetPost(ctx, id)
	if post.CreatedAt.IsZero() || !post.CreatedAt.Equal(post.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v", post.CreatedAt, post.UpdatedAt)
	}
}

// TestService_UpdatePost_KeepsOwnSlug は自分自身のスラッグが重複扱いされないことをテストする。
func TestService_UpdatePost_KeepsOwnSlug(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	id, err := svc.CreatePost(ctx, validInput())
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	before, _ := svc.GetPost(ctx, id)

	input := validInput()
	input.Excerpt = "Updated excerpt"
	updatedID, err := svc.UpdatePost(ctx, id, input)
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if updatedID != id {
		t.Errorf("UpdatePost returned %q, want %q", updatedID, id)
	}

	after, _ := svc.GetPost(ctx, id)
	if after.Slug != "hello-world" {
		t.Errorf("Slug = %q, want hello-world", after.Slug)
	}
	if after.Excerpt != "Updated excerpt" {
		t.Errorf("Excerpt = %q", after.Excerpt)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestService_UpdatePost_SlugTakenByOther(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CreatePost(ctx, validInput()); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	other := validInput()
	other.Title = "Another"
	otherID, err := svc.CreatePost(ctx, other)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	rename := validInput()
	rename.Slug = "hello-world"
	if _, err := svc.UpdatePost(ctx, otherID, rename); err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	post, _ := svc.GetPost(ctx, otherID)
	if post.Slug != "hello-world-2" {
		t.Errorf("Slug = %q, want hello-world-2", post.Slug)
	}
}

func TestService_UpdatePost_NotFound(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.UpdatePost(context.Background(), "missing", validInput())
	assertAPIErrorCode(t, err, model.ErrCodePostNotFound)
}

// TestService_CreatePost_RetriesOnConflict は保存時の一意制約違反でスラッグを再解決することをテストする。
func TestService_CreatePost_RetriesOnConflict(t *testing.T) {
	mem := repository.NewMemoryStore().Repositories()
	attempts := 0
	posts := &mockPostRepo{base: mem.Posts}
	posts.createFn = func(ctx context.Context, post *model.Post) error {
		attempts++
		if attempts == 1 {
			// 確認と保存の間に同じスラッグの記事が作られた
			racer := *post
			racer.ID = "racer"
			if err := mem.Posts.Create(ctx, &racer); err != nil {
				return err
			}
			return repository.ErrConflict
		}
		return mem.Posts.Create(ctx, post)
	}
	repos := &repository.ContentRepositories{Posts: posts, Comments: mem.Comments, Subscribers: mem.Subscribers}
	svc := newTestService(t, repos)

	id, err := svc.CreatePost(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	post, _ := mem.Posts.FindByID(context.Background(), id)
	if post == nil || post.Slug != "hello-world-2" {
		t.Errorf("post = %+v, want slug hello-world-2", post)
	}
}

func TestService_CreatePost_GivesUpAfterMaxAttempts(t *testing.T) {
	mem := repository.NewMemoryStore().Repositories()
	attempts := 0
	posts := &mockPostRepo{base: mem.Posts}
	posts.createFn = func(context.Context, *model.Post) error {
		attempts++
		return repository.ErrConflict
	}
	svc := newTestService(t, &repository.ContentRepositories{Posts: posts, Comments: mem.Comments, Subscribers: mem.Subscribers})

	_, err := svc.CreatePost(context.Background(), validInput())
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if attempts != maxSlugAttempts {
		t.Errorf("attempts = %d, want %d", attempts, maxSlugAttempts)
	}
}

func TestService_CreatePost_RepositoryError(t *testing.T) {
	mem := repository.NewMemoryStore().Repositories()
	dbErr := errors.New("connection refused")
	posts := &mockPostRepo{base: mem.Posts}
	posts.findBySlugFn = func(context.Context, string) (*model.Post, error) { return nil, dbErr }
	svc := newTestService(t, &repository.ContentRepositories{Posts: posts, Comments: mem.Comments, Subscribers: mem.Subscribers})

	_, err := svc.CreatePost(context.Background(), validInput())
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped dbErr, got %v", err)
	}
}

// --- AddComment ---

func createPost(t *testing.T, svc *Service, modify func(*model.PostInput)) string {
	t.Helper()
	input := validInput()
	if modify != nil {
		modify(&input)
	}
	id, err := svc.CreatePost(context.Background(), input)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return id
}

func TestService_AddComment_Success(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	postID := createPost(t, svc, nil)

	comment, err := svc.AddComment(ctx, postID, "  Ada  ", "  Great post!  ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if comment.Author != "Ada" {
		t.Errorf("Author = %q, want Ada", comment.Author)
	}
	if comment.Message != "Great post!" {
		t.Errorf("Message = %q, want trimmed text", comment.Message)
	}
	if comment.PostID != postID {
		t.Errorf("PostID = %q, want %q", comment.PostID, postID)
	}
	if _, err := time.Parse(time.RFC3339, comment.CreatedAt); err != nil {
		t.Errorf("CreatedAt %q is not ISO 8601: %v", comment.CreatedAt, err)
	}
}

func TestService_AddComment_KeepsAngleBrackets(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	postID := createPost(t, svc, nil)

	tests := []struct {
		name, author, message string
	}{
		{"不等号", "x", "a<b or 3 > 2"},
		{"タグ風の語", "x", "Use <div> and a<b or 3 > 2"},
		{"名前に記号", "Ada <3", "I <3 this"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment, err := svc.AddComment(ctx, postID, tt.author, tt.message)
			if err != nil {
				t.Fatalf("AddComment: %v", err)
			}
			if comment.Author != tt.author || comment.Message != tt.message {
				t.Errorf("got (%q, %q), want (%q, %q)", comment.Author, comment.Message, tt.author, tt.message)
			}
		})
	}

	comments, err := svc.ListComments(ctx, postID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 3 || comments[0].Message != "I <3 this" {
		t.Errorf("stored comments = %+v, want messages unchanged", comments)
	}
}

func TestService_AddComment_DraftPost(t *testing.T) {
	svc := newTestService(t, nil)
	postID := createPost(t, svc, func(in *model.PostInput) { in.Status = model.PostStatusDraft })

	_, err := svc.AddComment(context.Background(), postID, "Ada", "Hi")
	assertAPIErrorCode(t, err, model.ErrCodePostUnavailable)

	comments, _ := svc.ListComments(context.Background(), postID)
	if len(comments) != 0 {
		t.Errorf("draft post has %d comments, want 0", len(comments))
	}
}

func TestService_AddComment_MissingPost(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.AddComment(context.Background(), "nope", "Ada", "Hi")
	assertAPIErrorCode(t, err, model.ErrCodePostUnavailable)
}

func TestService_AddComment_EmptyFields(t *testing.T) {
	svc := newTestService(t, nil)
	postID := createPost(t, svc, nil)

	tests := []struct {
		name, author, message string
	}{
		{"名前が空", "", "Hi"},
		{"本文が空白のみ", "Ada", "   "},
		{"本文がタグのみ", "Ada", "<script>alert(1)</script>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddComment(context.Background(), postID, tt.author, tt.message)
			assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
		})
	}
}

func TestService_ListComments_NewestFirst(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	postID := createPost(t, svc, nil)

	for _, msg := range []string{"first", "second", "third"} {
		if _, err := svc.AddComment(ctx, postID, "Ada", msg); err != nil {
			t.Fatalf("AddComment(%s): %v", msg, err)
		}
	}

	comments, err := svc.ListComments(ctx, postID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("len = %d, want 3", len(comments))
	}
	for i, want := range []string{"third", "second", "first"} {
		if comments[i].Message != want {
			t.Errorf("comments[%d] = %q, want %q", i, comments[i].Message, want)
		}
	}
}

func TestService_ListComments_SameMillisecondNewestFirst(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	postID := createPost(t, svc, nil)

	frozen := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }
	for _, msg := range []string{"first", "second"} {
		if _, err := svc.AddComment(ctx, postID, "Ada", msg); err != nil {
			t.Fatalf("AddComment(%s): %v", msg, err)
		}
	}

	comments, err := svc.ListComments(ctx, postID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 2 || comments[0].Message != "second" || comments[1].Message != "first" {
		t.Errorf("comments = %+v, want [second first]", comments)
	}
}

// --- AddNewsletterSubscriber ---

func TestService_AddNewsletterSubscriber_NormalizesAndDedupes(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	already, err := svc.AddNewsletterSubscriber(ctx, "  Fan@Example.COM ")
	if err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	if already {
		t.Error("first subscribe reported alreadySubscribed")
	}

	already, err = svc.AddNewsletterSubscriber(ctx, "fan@example.com")
	if err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	if !already {
		t.Error("second subscribe should report alreadySubscribed")
	}
}

func TestService_AddNewsletterSubscriber_InvalidEmail(t *testing.T) {
	svc := newTestService(t, nil)

	for _, email := range []string{"", "plain", "a@b", "with space@example.com", "@example.com"} {
		_, err := svc.AddNewsletterSubscriber(context.Background(), email)
		assertAPIErrorCode(t, err, model.ErrCodeInvalidEmail)
	}
}

// TestService_AddNewsletterSubscriber_ConcurrentInsert は確認後の並行登録をalreadySubscribedとして扱うことをテストする。
func TestService_AddNewsletterSubscriber_ConcurrentInsert(t *testing.T) {
	mem := repository.NewMemoryStore().Repositories()
	subs := &mockSubscriberRepo{
		createFn: func(context.Context, *model.NewsletterSubscriber) error {
			return fmt.Errorf("insert: %w", repository.ErrConflict)
		},
	}
	svc := newTestService(t, &repository.ContentRepositories{Posts: mem.Posts, Comments: mem.Comments, Subscribers: subs})

	already, err := svc.AddNewsletterSubscriber(context.Background(), "fan@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !already {
		t.Error("expected alreadySubscribed on conflict")
	}
}

func TestService_AddNewsletterSubscriber_StoreError(t *testing.T) {
	mem := repository.NewMemoryStore().Repositories()
	dbErr := errors.New("timeout")
	subs := &mockSubscriberRepo{
		findByEmailFn: func(context.Context, string) (*model.NewsletterSubscriber, error) { return nil, dbErr },
	}
	svc := newTestService(t, &repository.ContentRepositories{Posts: mem.Posts, Comments: mem.Comments, Subscribers: subs})

	_, err := svc.AddNewsletterSubscriber(context.Background(), "fan@example.com")
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped dbErr, got %v", err)
	}
}

// --- 読み取り系 ---

func TestService_ListFeaturedPosts_ClampsLimit(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		createPost(t, svc, func(in *model.PostInput) {
			in.Title = fmt.Sprintf("Featured %d", i)
			in.Featured = true
		})
	}
	createPost(t, svc, func(in *model.PostInput) {
		in.Title = "Draft featured"
		in.Featured = true
		in.Status = model.PostStatusDraft
	})

	tests := []struct{ limit, want int }{
		{0, 1}, {3, 3}, {50, 12},
	}
	for _, tt := range tests {
		posts, err := svc.ListFeaturedPosts(ctx, tt.limit)
		if err != nil {
			t.Fatalf("ListFeaturedPosts(%d): %v", tt.limit, err)
		}
		if len(posts) != tt.want {
			t.Errorf("ListFeaturedPosts(%d) len = %d, want %d", tt.limit, len(posts), tt.want)
		}
		for _, p := range posts {
			if !p.IsPublished() || !p.Featured {
				t.Errorf("unexpected post %q (status=%s featured=%v)", p.Slug, p.Status, p.Featured)
			}
		}
	}
}

func TestService_ListPosts_DraftFilter(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	createPost(t, svc, func(in *model.PostInput) { in.PublishedAt = "2024-01-01" })
	createPost(t, svc, func(in *model.PostInput) {
		in.Title = "Newer draft"
		in.PublishedAt = "2024-06-01"
		in.Status = model.PostStatusDraft
	})

	public, _ := svc.ListPosts(ctx, false)
	if len(public) != 1 || public[0].Slug != "hello-world" {
		t.Errorf("public posts = %v", public)
	}
	all, _ := svc.ListPosts(ctx, true)
	if len(all) != 2 || all[0].Slug != "newer-draft" {
		t.Errorf("all posts should be newest first, got %d posts", len(all))
	}
}

func TestService_ListCategoriesAndAdminStats(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	postID := createPost(t, svc, func(in *model.PostInput) { in.Category = "Radio" })
	createPost(t, svc, func(in *model.PostInput) { in.Title = "Two"; in.Category = "Radio" })
	createPost(t, svc, func(in *model.PostInput) {
		in.Title = "Three"
		in.Category = "Secret"
		in.Status = model.PostStatusDraft
	})
	if _, err := svc.AddComment(ctx, postID, "Ada", "Hi"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	categories, err := svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 1 || categories[0] != "Radio" {
		t.Errorf("categories = %v, want [Radio]", categories)
	}

	stats, err := svc.AdminStats(ctx)
	if err != nil {
		t.Fatalf("AdminStats: %v", err)
	}
	want := model.BlogStats{TotalPosts: 3, PublishedPosts: 2, TotalComments: 1, Categories: 2}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
}
