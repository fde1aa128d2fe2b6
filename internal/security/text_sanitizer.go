// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は閲覧者が投稿するコメントや外部フィードから取り込む文章を
// プレーンテキストに正規化し、HTMLとして解釈され得る断片を保存前に取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// SanitizeText は入力からすべてのHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
	// script, styleなどの要素は中身ごと除去される。
	// 文字参照はデコードされ、プレーンテキストとして扱える形で返す。
	// 同一入力に対して常に同一出力を返す。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はHTMLを除去したプレーンテキストを返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
