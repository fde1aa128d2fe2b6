// Package content はブログ記事・コメント・ニュースレター購読のドメインロジックを提供する。
// 入力の正規化、スラッグの一意化、既定データの冪等シード、ストア障害時のフォールバックを扱う。
package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// NBSPや全角スペースなどのUnicode空白(\p{Z})も区切りとして扱う
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9\p{Z}\s-]`)
	whitespaceRuns = regexp.MustCompile(`[\p{Z}\s]+`)
	hyphenRuns     = regexp.MustCompile(`-+`)
)

// Slugify は任意の文字列からURLセーフなスラッグを生成する。
// 結果が空になる場合は "post-<現在時刻ミリ秒>" を返すため、空文字列は返さない。
func Slugify(value string) string {
	return slugify(value, time.Now)
}

func slugify(value string, now func() time.Time) string {
	s := strings.TrimSpace(strings.ToLower(value))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fmt.Sprintf("post-%d", now().UnixMilli())
	}
	return s
}
