package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sudhamayam/portfolio/internal/model"
)

func newAdminRouter(store ContentStore) http.Handler {
	h := NewAdminHandler(store)
	h.now = func() time.Time { return time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Get("/api/admin/posts", h.ListPosts)
	r.Get("/api/admin/stats", h.Stats)
	r.Post("/api/admin/posts", h.CreatePost)
	r.Patch("/api/admin/posts/{id}", h.UpdatePost)
	return r
}

const validPostBody = `{"title":"Hello","excerpt":"Short","category":"Music","content":["One","Two"],"status":"published"}`

func TestAdminHandler_ListPosts_IncludeDrafts(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"?includeDrafts=true", true},
		{"?includeDrafts=false", false},
		{"?includeDrafts=maybe", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got bool
			store := &mockContentStore{
				listPostsFn: func(_ context.Context, includeDrafts bool) []*model.Post {
					got = includeDrafts
					return nil
				},
			}
			req := httptest.NewRequest(http.MethodGet, "/api/admin/posts"+tt.query, nil)
			w := httptest.NewRecorder()
			newAdminRouter(store).ServeHTTP(w, req)

			if got != tt.want {
				t.Errorf("includeDrafts = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdminHandler_Stats(t *testing.T) {
	store := &mockContentStore{
		adminStatsFn: func(context.Context) *model.BlogStats {
			return &model.BlogStats{TotalPosts: 6, PublishedPosts: 5, TotalComments: 3, Categories: 4}
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	w := httptest.NewRecorder()
	newAdminRouter(store).ServeHTTP(w, req)

	var body struct {
		Stats statsResponse `json:"stats"`
	}
	decodeBody(t, w, &body)
	want := statsResponse{TotalPosts: 6, PublishedPosts: 5, TotalComments: 3, Categories: 4}
	if body.Stats != want {
		t.Errorf("stats = %+v, want %+v", body.Stats, want)
	}
}

func TestAdminHandler_CreatePost_Success(t *testing.T) {
	var got model.PostInput
	store := &mockContentStore{
		createPostFn: func(_ context.Context, input model.PostInput) (string, error) {
			got = input
			return "new-id", nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/posts", strings.NewReader(validPostBody))
	w := httptest.NewRecorder()
	newAdminRouter(store).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", w.Code, w.Body.String())
	}
	var body struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	decodeBody(t, w, &body)
	if body.Post.ID != "new-id" {
		t.Errorf("id = %q, want new-id", body.Post.ID)
	}
	if got.Title != "Hello" || got.Status != model.PostStatusPublished || got.PublishedAt != "2025-03-04" {
		t.Errorf("input = %+v", got)
	}
}

func TestAdminHandler_CreatePost_ValidationError(t *testing.T) {
	called := false
	store := &mockContentStore{
		createPostFn: func(context.Context, model.PostInput) (string, error) {
			called = true
			return "", nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/posts", strings.NewReader(`{"title":"Only title"}`))
	w := httptest.NewRecorder()
	newAdminRouter(store).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if called {
		t.Error("store must not be called on invalid payload")
	}
	if body := decodeError(t, w); body.Error != "Title, excerpt, category, and content are required." {
		t.Errorf("error = %q", body.Error)
	}
}

func TestAdminHandler_CreatePost_InvalidJSON(t *testing.T) {
	for _, raw := range []string{"not json", "[1,2]", "null", `"text"`} {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/posts", strings.NewReader(raw))
		w := httptest.NewRecorder()
		newAdminRouter(&mockContentStore{}).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%q: status = %d, want 400", raw, w.Code)
		}
	}
}

func TestAdminHandler_CreatePost_PersistenceUnavailable(t *testing.T) {
	store := &mockContentStore{
		createPostFn: func(context.Context, model.PostInput) (string, error) {
			return "", model.NewPersistenceUnavailableError()
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/posts", strings.NewReader(validPostBody))
	w := httptest.NewRecorder()
	newAdminRouter(store).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decodeError(t, w); body.Code != model.ErrCodePersistenceUnavailable {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodePersistenceUnavailable)
	}
}

func TestAdminHandler_CreatePost_UnexpectedErrorHidesDetail(t *testing.T) {
	store := &mockContentStore{
		createPostFn: func(context.Context, model.PostInput) (string, error) {
			return "", errors.New("pq: connection refused")
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/posts", strings.NewReader(validPostBody))
	w := httptest.NewRecorder()
	newAdminRouter(store).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal error detail leaked to response")
	}
}

func TestAdminHandler_UpdatePost(t *testing.T) {
	var gotID string
	store := &mockContentStore{
		updatePostFn: func(_ context.Context, id string, _ model.PostInput) (string, error) {
			gotID = id
			if id == "missing" {
				return "", model.NewPostNotFoundError()
			}
			return id, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/posts/abc", strings.NewReader(validPostBody))
	w := httptest.NewRecorder()
	newAdminRouter(store).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotID != "abc" {
		t.Errorf("id = %q, want abc", gotID)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/admin/posts/missing", strings.NewReader(validPostBody))
	w = httptest.NewRecorder()
	newAdminRouter(store).ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
