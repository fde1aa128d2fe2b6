package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sudhamayam/portfolio/internal/content"
	"github.com/sudhamayam/portfolio/internal/middleware"
	"github.com/sudhamayam/portfolio/internal/model"
)

// ContentStore はハンドラーが必要とするコンテンツストアのインターフェース。
// 読み取りはフォールバックで常に値を返し、書き込みのみエラーを返す。
type ContentStore interface {
	ListPosts(ctx context.Context, includeDrafts bool) []*model.Post
	ListFeaturedPosts(ctx context.Context, limit int) []*model.Post
	GetPost(ctx context.Context, id string) *model.Post
	ListCategories(ctx context.Context) []string
	ListComments(ctx context.Context, postID string) []*model.Comment
	AdminStats(ctx context.Context) *model.BlogStats

	CreatePost(ctx context.Context, input model.PostInput) (string, error)
	UpdatePost(ctx context.Context, id string, input model.PostInput) (string, error)
	AddComment(ctx context.Context, postID, author, message string) (*model.Comment, error)
	AddNewsletterSubscriber(ctx context.Context, email string) (bool, error)
}

// PostHandler は公開ブログ記事のHTTPハンドラー。
type PostHandler struct {
	store   ContentStore
	isAdmin func(email string) bool
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(store ContentStore, isAdmin func(email string) bool) *PostHandler {
	return &PostHandler{store: store, isAdmin: isAdmin}
}

// ListPosts は公開中の記事一覧を返す。
// GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts := h.store.ListPosts(r.Context(), false)
	writeJSON(w, http.StatusOK, map[string]any{"posts": toPostResponses(posts)})
}

// ListFeaturedPosts はおすすめ記事を返す。
// GET /api/posts/featured?limit=3
func (h *PostHandler) ListFeaturedPosts(w http.ResponseWriter, r *http.Request) {
	limit := content.DefaultFeaturedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	posts := h.store.ListFeaturedPosts(r.Context(), limit)
	writeJSON(w, http.StatusOK, map[string]any{"posts": toPostResponses(posts)})
}

// GetPost は記事詳細を返す。下書きは管理者にのみ返す。
// GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post := h.store.GetPost(r.Context(), chi.URLParam(r, "id"))
	if post == nil || (!post.IsPublished() && !h.requestIsAdmin(r)) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": toPostResponse(post)})
}

// ListComments は記事のコメントを新しい順に返す。
// GET /api/posts/{id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments := h.store.ListComments(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]any{"comments": toCommentResponses(comments)})
}

// ListCategories は公開中の記事のカテゴリ一覧を返す。
// GET /api/categories
func (h *PostHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.store.ListCategories(r.Context())})
}

func (h *PostHandler) requestIsAdmin(r *http.Request) bool {
	email, ok := middleware.EmailFromContext(r.Context())
	return ok && h.isAdmin != nil && h.isAdmin(email)
}
