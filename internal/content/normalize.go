package content

import (
	"math"
	"strings"
	"time"

	"github.com/sudhamayam/portfolio/internal/model"
)

// 読了時間（分）の有効範囲。入力解析と保存の両方でこの範囲に丸める。
const (
	MinReadTimeMinutes = 1
	MaxReadTimeMinutes = 60
)

// おすすめ記事の取得件数の範囲と既定値。
const (
	MinFeaturedLimit     = 1
	MaxFeaturedLimit     = 12
	DefaultFeaturedLimit = 3
)

// isoMillis はコメント作成日時の保存形式（ミリ秒精度のUTC ISO 8601）。
const isoMillis = "2006-01-02T15:04:05.000Z"

// dateLayouts は公開日・作成日時として受け付ける書式。先頭から順に試す。
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	time.DateOnly,
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 2, 2006",
}

// parseDate は既知の書式で日付を解析する。タイムゾーン指定のない書式はUTCとして扱う。
func parseDate(input string) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ClampReadTime は読了時間を四捨五入し、[MinReadTimeMinutes, MaxReadTimeMinutes]に収める。
// NaNは下限として扱う。
func ClampReadTime(minutes float64) int {
	if math.IsNaN(minutes) {
		return MinReadTimeMinutes
	}
	rounded := math.Round(minutes)
	if rounded < MinReadTimeMinutes {
		return MinReadTimeMinutes
	}
	if rounded > MaxReadTimeMinutes {
		return MaxReadTimeMinutes
	}
	return int(rounded)
}

// ClampFeaturedLimit はおすすめ記事の取得件数を[MinFeaturedLimit, MaxFeaturedLimit]に収める。
func ClampFeaturedLimit(limit int) int {
	return max(MinFeaturedLimit, min(MaxFeaturedLimit, limit))
}

// NormalizePublishedAt は公開日をYYYY-MM-DDとそのUTC 0時のミリ秒値に正規化する。
// 解析できない場合はnowの日付を使う。
func NormalizePublishedAt(input string, now time.Time) (string, int64) {
	t, ok := parseDate(input)
	if !ok {
		t = now
	}
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return day.Format(time.DateOnly), day.UnixMilli()
}

// NormalizeISODatetime は日時をミリ秒精度のISO 8601文字列とミリ秒値に正規化する。
// 解析できない場合はnowを使う。
func NormalizeISODatetime(input string, now time.Time) (string, int64) {
	t, ok := parseDate(input)
	if !ok {
		t = now
	}
	u := t.UTC().Truncate(time.Millisecond)
	return u.Format(isoMillis), u.UnixMilli()
}

// NormalizePostInput は記事入力を保存可能な形に正規化する。
// タイトル・抜粋・カテゴリが空、または空でない段落が1つもない場合は検証エラーを返す。
// 返す記事のID・作成日時・更新日時は未設定。スラッグは一意化前の候補。
func NormalizePostInput(input model.PostInput, now time.Time) (*model.Post, error) {
	return normalizePostInput(input, func() time.Time { return now })
}

func normalizePostInput(input model.PostInput, now func() time.Time) (*model.Post, error) {
	title := strings.TrimSpace(input.Title)
	excerpt := strings.TrimSpace(input.Excerpt)
	category := strings.TrimSpace(input.Category)

	content := make([]string, 0, len(input.Content))
	for _, paragraph := range input.Content {
		if p := strings.TrimSpace(paragraph); p != "" {
			content = append(content, p)
		}
	}

	if title == "" || excerpt == "" || category == "" || len(content) == 0 {
		return nil, model.NewRequiredFieldsMissingError()
	}

	seo := strings.TrimSpace(input.SEODescription)
	if seo == "" {
		seo = excerpt
	}

	slugSource := strings.TrimSpace(input.Slug)
	if slugSource == "" {
		slugSource = title
	}

	status := model.PostStatusDraft
	if input.Status == model.PostStatusPublished {
		status = model.PostStatusPublished
	}

	publishedAt, publishedAtTs := NormalizePublishedAt(input.PublishedAt, now())

	return &model.Post{
		Slug:            slugify(slugSource, now),
		Title:           title,
		Excerpt:         excerpt,
		Content:         content,
		Category:        category,
		PublishedAt:     publishedAt,
		PublishedAtTs:   publishedAtTs,
		ReadTimeMinutes: ClampReadTime(input.ReadTimeMinutes),
		CoverGradient:   strings.TrimSpace(input.CoverGradient),
		Status:          status,
		Featured:        input.Featured,
		SEODescription:  seo,
	}, nil
}
