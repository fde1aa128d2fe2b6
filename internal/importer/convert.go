package importer

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/sudhamayam/portfolio/internal/content"
	"github.com/sudhamayam/portfolio/internal/model"
	"github.com/sudhamayam/portfolio/internal/security"
)

const (
	defaultCategory     = "Imported"
	importCoverGradient = "from-[#1f6a6d] to-[#4ea59e]"
	maxExcerptRunes     = 280
	wordsPerMinute      = 200
)

// convertItem はフィードのエントリを下書きのPostInputに変換する。
// タイトルか本文が空の場合はfalseを返す。
func convertItem(item *gofeed.Item, sanitizer security.TextSanitizer, now time.Time) (model.PostInput, bool) {
	title := sanitizer.SanitizeText(item.Title)
	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}
	paragraphs := sanitizeParagraphs(extractParagraphs(body), sanitizer)
	if title == "" || len(paragraphs) == 0 {
		return model.PostInput{}, false
	}

	excerpt := sanitizer.SanitizeText(item.Description)
	if excerpt == "" || excerpt == strings.Join(paragraphs, " ") {
		excerpt = paragraphs[0]
	}
	excerpt = truncateRunes(excerpt, maxExcerptRunes)

	category := defaultCategory
	for _, c := range item.Categories {
		if c = sanitizer.SanitizeText(c); c != "" {
			category = c
			break
		}
	}

	published := now
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	return model.PostInput{
		Slug:            content.Slugify(title),
		Title:           title,
		Excerpt:         excerpt,
		Content:         paragraphs,
		Category:        category,
		PublishedAt:     published.UTC().Format(time.DateOnly),
		ReadTimeMinutes: estimateReadTime(paragraphs),
		CoverGradient:   importCoverGradient,
		Status:          model.PostStatusDraft,
		SEODescription:  excerpt,
	}, true
}

func sanitizeParagraphs(raw []string, sanitizer security.TextSanitizer) []string {
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if s := sanitizer.SanitizeText(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// estimateReadTime は1分200語として読了時間を見積もる。
func estimateReadTime(paragraphs []string) float64 {
	words := 0
	for _, p := range paragraphs {
		words += len(strings.Fields(p))
	}
	return math.Max(1, math.Ceil(float64(words)/wordsPerMinute))
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
