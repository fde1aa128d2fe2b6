package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/sudhamayam/portfolio/internal/middleware"
	"github.com/sudhamayam/portfolio/internal/model"
)

// --- モック定義 ---

type mockContentStore struct {
	listPostsFn         func(ctx context.Context, includeDrafts bool) []*model.Post
	listFeaturedPostsFn func(ctx context.Context, limit int) []*model.Post
	getPostFn           func(ctx context.Context, id string) *model.Post
	listCategoriesFn    func(ctx context.Context) []string
	listCommentsFn      func(ctx context.Context, postID string) []*model.Comment
	adminStatsFn        func(ctx context.Context) *model.BlogStats
	createPostFn        func(ctx context.Context, input model.PostInput) (string, error)
	updatePostFn        func(ctx context.Context, id string, input model.PostInput) (string, error)
	addCommentFn        func(ctx context.Context, postID, author, message string) (*model.Comment, error)
	addSubscriberFn     func(ctx context.Context, email string) (bool, error)
}

func (m *mockContentStore) ListPosts(ctx context.Context, includeDrafts bool) []*model.Post {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx, includeDrafts)
	}
	return nil
}

func (m *mockContentStore) ListFeaturedPosts(ctx context.Context, limit int) []*model.Post {
	if m.listFeaturedPostsFn != nil {
		return m.listFeaturedPostsFn(ctx, limit)
	}
	return nil
}

func (m *mockContentStore) GetPost(ctx context.Context, id string) *model.Post {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, id)
	}
	return nil
}

func (m *mockContentStore) ListCategories(ctx context.Context) []string {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx)
	}
	return nil
}

func (m *mockContentStore) ListComments(ctx context.Context, postID string) []*model.Comment {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, postID)
	}
	return nil
}

func (m *mockContentStore) AdminStats(ctx context.Context) *model.BlogStats {
	if m.adminStatsFn != nil {
		return m.adminStatsFn(ctx)
	}
	return &model.BlogStats{}
}

func (m *mockContentStore) CreatePost(ctx context.Context, input model.PostInput) (string, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, input)
	}
	return "", nil
}

func (m *mockContentStore) UpdatePost(ctx context.Context, id string, input model.PostInput) (string, error) {
	if m.updatePostFn != nil {
		return m.updatePostFn(ctx, id, input)
	}
	return "", nil
}

func (m *mockContentStore) AddComment(ctx context.Context, postID, author, message string) (*model.Comment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, postID, author, message)
	}
	return nil, nil
}

func (m *mockContentStore) AddNewsletterSubscriber(ctx context.Context, email string) (bool, error) {
	if m.addSubscriberFn != nil {
		return m.addSubscriberFn(ctx, email)
	}
	return false, nil
}

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	adminEmail       string
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) IsAdmin(email string) bool {
	return m.adminEmail != "" && email == m.adminEmail
}

// --- ヘルパー ---

const testAdminEmail = "owner@example.com"

func isTestAdmin(email string) bool {
	return email == testAdminEmail
}

func samplePost(id string, status model.PostStatus) *model.Post {
	return &model.Post{
		ID:              id,
		Slug:            "post-" + id,
		Title:           "Post " + id,
		Excerpt:         "Excerpt " + id,
		Content:         []string{"Paragraph"},
		Category:        "Voice Acting",
		PublishedAt:     "2024-12-15",
		PublishedAtTs:   1734220800000,
		ReadTimeMinutes: 5,
		CoverGradient:   "from-a to-b",
		Status:          status,
		SEODescription:  "Excerpt " + id,
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	decodeBody(t, w, &body)
	return body
}
