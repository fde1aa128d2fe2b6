package content

import (
	"strings"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"通常のタイトル", "The Art of Voice: Finding Your Unique Sound", "the-art-of-voice-finding-your-unique-sound"},
		{"前後の空白", "  Hello World  ", "hello-world"},
		{"連続する空白とハイフン", "a  --  b", "a-b"},
		{"記号のみ除去", "C'est la vie!", "cest-la-vie"},
		{"先頭末尾のハイフン", "--trim--", "trim"},
		{"数字", "Top 10 Tips", "top-10-tips"},
		{"ノーブレークスペース", "Hello\u00a0World", "hello-world"},
		{"全角スペース", "Hello\u3000World", "hello-world"},
		{"狭いノーブレークスペースの連続", "Hello\u202f\u00a0 World", "hello-world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSlugify_Idempotent はスラッグを再度スラッグ化しても変わらないことをテストする。
func TestSlugify_Idempotent(t *testing.T) {
	inputs := []string{"Hello, World!", "  Spaces   everywhere ", "Ünïcödé Title", "a-b--c"}
	for _, in := range inputs {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify(Slugify(%q)) = %q, want %q", in, twice, once)
		}
	}
}

// TestSlugify_EmptyFallback は英数字が残らない場合にpost-<ミリ秒>を返すことをテストする。
func TestSlugify_EmptyFallback(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	now := func() time.Time { return fixed }

	for _, in := range []string{"", "   ", "!!!", "日本語のみ"} {
		got := slugify(in, now)
		if got != "post-1700000000123" {
			t.Errorf("slugify(%q) = %q, want %q", in, got, "post-1700000000123")
		}
	}

	if got := Slugify("???"); !strings.HasPrefix(got, "post-") {
		t.Errorf("Slugify(???) = %q, want post- prefix", got)
	}
}
