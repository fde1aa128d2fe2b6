package handler

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sudhamayam/portfolio/internal/content"
	"github.com/sudhamayam/portfolio/internal/model"
)

const (
	defaultCoverGradient   = "from-[#1f6a6d] to-[#4ea59e]"
	defaultReadTimeMinutes = 5
)

// parsePostPayload は管理画面から送られた記事ペイロードをPostInputに変換する。
// 型の合わない項目は空として扱い、タイトル・抜粋・カテゴリ・本文のいずれかが空なら検証エラーを返す。
func parsePostPayload(payload map[string]any, now time.Time) (model.PostInput, *model.APIError) {
	title := stringField(payload, "title")
	excerpt := stringField(payload, "excerpt")
	category := stringField(payload, "category")
	paragraphs := contentField(payload["content"])

	if title == "" || excerpt == "" || category == "" || len(paragraphs) == 0 {
		return model.PostInput{}, model.NewValidationError("Title, excerpt, category, and content are required.")
	}

	status := model.PostStatusDraft
	if s, ok := payload["status"].(string); ok && s == string(model.PostStatusPublished) {
		status = model.PostStatusPublished
	}

	coverGradient := defaultCoverGradient
	if s, ok := payload["coverGradient"].(string); ok {
		coverGradient = strings.TrimSpace(s)
	}

	publishedAt := now.UTC().Format(time.DateOnly)
	if s, ok := payload["publishedAt"].(string); ok && strings.TrimSpace(s) != "" {
		publishedAt = s
	}

	seoDescription := stringField(payload, "seoDescription")
	if seoDescription == "" {
		seoDescription = excerpt
	}

	return model.PostInput{
		Slug:            stringField(payload, "slug"),
		Title:           title,
		Excerpt:         excerpt,
		Content:         paragraphs,
		Category:        category,
		PublishedAt:     publishedAt,
		ReadTimeMinutes: float64(readTimeField(payload)),
		CoverGradient:   coverGradient,
		Status:          status,
		Featured:        truthy(payload["featured"]),
		SEODescription:  seoDescription,
	}, nil
}

// stringField は文字列項目をトリムして返す。文字列以外は空として扱う。
func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return strings.TrimSpace(s)
}

// contentField は段落配列から空でない文字列だけを取り出す。配列以外は空。
func contentField(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	paragraphs := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		if s = strings.TrimSpace(s); s != "" {
			paragraphs = append(paragraphs, s)
		}
	}
	return paragraphs
}

// readTimeField は読了時間を数値に変換して範囲内に丸める。
// 数値として解釈できない場合は既定値の5分。
func readTimeField(payload map[string]any) int {
	raw, ok := payload["readTimeMinutes"]
	if !ok {
		return defaultReadTimeMinutes
	}
	var minutes float64
	switch v := raw.(type) {
	case float64:
		minutes = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			minutes = 0
			break
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return defaultReadTimeMinutes
		}
		minutes = f
	case bool:
		if v {
			minutes = 1
		}
	case nil:
		minutes = 0
	default:
		return defaultReadTimeMinutes
	}
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return defaultReadTimeMinutes
	}
	return content.ClampReadTime(minutes)
}

// truthy はJSON値を真偽値として評価する。空文字列・0・null・falseのみ偽。
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}
