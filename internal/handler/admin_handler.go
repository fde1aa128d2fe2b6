package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// AdminHandler は管理画面向けの記事管理HTTPハンドラー。
// ルーティング側でNewRequireAdminMiddlewareを通すことを前提とする。
type AdminHandler struct {
	store ContentStore
	now   func() time.Time
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(store ContentStore) *AdminHandler {
	return &AdminHandler{store: store, now: time.Now}
}

// ListPosts は下書きを含む記事一覧を返す。includeDrafts=falseで公開中のみ。
// GET /api/admin/posts?includeDrafts=true
func (h *AdminHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	includeDrafts := true
	if raw := r.URL.Query().Get("includeDrafts"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			includeDrafts = b
		}
	}
	posts := h.store.ListPosts(r.Context(), includeDrafts)
	writeJSON(w, http.StatusOK, map[string]any{"posts": toPostResponses(posts)})
}

// Stats は管理画面向けの集計値を返す。
// GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.store.AdminStats(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"stats": toStatsResponse(stats)})
}

// CreatePost は記事を作成する。
// POST /api/admin/posts
func (h *AdminHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	payload, apiErr := decodeJSONObject(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	input, apiErr := parsePostPayload(payload, h.now())
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	id, err := h.store.CreatePost(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"post": map[string]string{"id": id}})
}

// UpdatePost は記事を全置換で更新する。
// PATCH /api/admin/posts/{id}
func (h *AdminHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	payload, apiErr := decodeJSONObject(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	input, apiErr := parsePostPayload(payload, h.now())
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	id, err := h.store.UpdatePost(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": map[string]string{"id": id}})
}
