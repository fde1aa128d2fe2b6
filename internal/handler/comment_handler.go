package handler

import (
	"net/http"

	"github.com/sudhamayam/portfolio/internal/model"
)

// CommentHandler はコメント投稿とニュースレター購読のHTTPハンドラー。
type CommentHandler struct {
	store ContentStore
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(store ContentStore) *CommentHandler {
	return &CommentHandler{store: store}
}

// AddComment は公開中の記事にコメントを追加する。
// POST /api/comments {postId, name, message}
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	payload, apiErr := decodeJSONObject(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	postID := stringField(payload, "postId")
	name := stringField(payload, "name")
	message := stringField(payload, "message")
	if postID == "" || name == "" || message == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("postId, name, and message are required."))
		return
	}

	comment, err := h.store.AddComment(r.Context(), postID, name, message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"comment": toCommentResponse(comment)})
}

// Subscribe はニュースレター購読者を登録する。
// POST /api/newsletter {email}
func (h *CommentHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	payload, apiErr := decodeJSONObject(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	email := stringField(payload, "email")
	if email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Email is required."))
		return
	}

	already, err := h.store.AddNewsletterSubscriber(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alreadySubscribed": already})
}
