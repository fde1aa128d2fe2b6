// Package sitedata は同梱のサイトプロフィールと既定ブログデータを提供する。
// 既定データは初回シードの入力であり、ストア未設定・障害時の読み取りフォールバックでもある。
package sitedata

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sudhamayam/portfolio/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// NavLink はナビゲーションリンク。AdminOnlyのリンクは管理者にのみ表示する。
type NavLink struct {
	Label     string `yaml:"label" json:"label"`
	Href      string `yaml:"href" json:"href"`
	AdminOnly bool   `yaml:"adminOnly" json:"-"`
}

// TimelineEvent は経歴タイムラインの1項目。
type TimelineEvent struct {
	Year                string `yaml:"year" json:"year"`
	Title               string `yaml:"title" json:"title"`
	Description         string `yaml:"description" json:"description"`
	AccentClass         string `yaml:"accentClass" json:"accentClass"`
	Icon                string `yaml:"icon" json:"icon"`
	PlaceholderLabel    string `yaml:"placeholderLabel" json:"placeholderLabel"`
	PlaceholderGradient string `yaml:"placeholderGradient" json:"placeholderGradient"`
}

// MediaCard は外部メディアへの導線カード。
type MediaCard struct {
	ID            string `yaml:"id" json:"id"`
	Platform      string `yaml:"platform" json:"platform"`
	Description   string `yaml:"description" json:"description"`
	Href          string `yaml:"href" json:"href"`
	ButtonLabel   string `yaml:"buttonLabel" json:"buttonLabel"`
	GradientClass string `yaml:"gradientClass" json:"gradientClass"`
}

// SocialLink はSNSリンク。
type SocialLink struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

// SiteProfile はサイト全体のプロフィール情報。
type SiteProfile struct {
	Name        string          `yaml:"name" json:"name"`
	Tagline     string          `yaml:"tagline" json:"tagline"`
	NavLinks    []NavLink       `yaml:"navLinks" json:"-"`
	Timeline    []TimelineEvent `yaml:"timeline" json:"timeline"`
	MediaCards  []MediaCard     `yaml:"mediaCards" json:"mediaCards"`
	SocialLinks []SocialLink    `yaml:"socialLinks" json:"socialLinks"`
}

// Nav は閲覧者に応じたナビゲーションリンクを返す。
func (s SiteProfile) Nav(isAdmin bool) []NavLink {
	links := make([]NavLink, 0, len(s.NavLinks))
	for _, l := range s.NavLinks {
		if l.AdminOnly && !isAdmin {
			continue
		}
		links = append(links, l)
	}
	return links
}

// DefaultPost は同梱の既定記事。IDはシード時に新IDへ対応付けるレガシーIDとして扱う。
type DefaultPost struct {
	ID              string   `yaml:"id"`
	Slug            string   `yaml:"slug"`
	Title           string   `yaml:"title"`
	Excerpt         string   `yaml:"excerpt"`
	Content         []string `yaml:"content"`
	Category        string   `yaml:"category"`
	PublishedAt     string   `yaml:"publishedAt"`
	ReadTimeMinutes int      `yaml:"readTimeMinutes"`
	CoverGradient   string   `yaml:"coverGradient"`
	Status          string   `yaml:"status"`
	Featured        bool     `yaml:"featured"`
	SEODescription  string   `yaml:"seoDescription"`
}

// Input は既定記事をシード用の入力に変換する。
func (p DefaultPost) Input() model.PostInput {
	return model.PostInput{
		Slug:            p.Slug,
		Title:           p.Title,
		Excerpt:         p.Excerpt,
		Content:         append([]string(nil), p.Content...),
		Category:        p.Category,
		PublishedAt:     p.PublishedAt,
		ReadTimeMinutes: float64(p.ReadTimeMinutes),
		CoverGradient:   p.CoverGradient,
		Status:          model.PostStatus(p.Status),
		Featured:        p.Featured,
		SEODescription:  p.SEODescription,
	}
}

// Post はフォールバック表示用の記事を返す。IDにはレガシーIDを使う。
func (p DefaultPost) Post() *model.Post {
	var ts int64
	if d, err := time.Parse(time.DateOnly, p.PublishedAt); err == nil {
		ts = d.UnixMilli()
	}
	return &model.Post{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		Excerpt:         p.Excerpt,
		Content:         append([]string(nil), p.Content...),
		Category:        p.Category,
		PublishedAt:     p.PublishedAt,
		PublishedAtTs:   ts,
		ReadTimeMinutes: p.ReadTimeMinutes,
		CoverGradient:   p.CoverGradient,
		Status:          model.PostStatus(p.Status),
		Featured:        p.Featured,
		SEODescription:  p.SEODescription,
	}
}

// DefaultComment は同梱の既定コメント。PostIDは既定記事のレガシーIDを指す。
type DefaultComment struct {
	ID        string `yaml:"id"`
	PostID    string `yaml:"postId"`
	Author    string `yaml:"author"`
	Message   string `yaml:"message"`
	CreatedAt string `yaml:"createdAt"`
}

// Comment はフォールバック表示用のコメントを返す。
func (c DefaultComment) Comment() *model.Comment {
	var ts int64
	if t, err := time.Parse(time.RFC3339Nano, c.CreatedAt); err == nil {
		ts = t.UnixMilli()
	}
	return &model.Comment{
		ID:          c.ID,
		PostID:      c.PostID,
		Author:      c.Author,
		Message:     c.Message,
		CreatedAt:   c.CreatedAt,
		CreatedAtTs: ts,
	}
}

// Dataset は同梱データ全体。
type Dataset struct {
	Site     SiteProfile      `yaml:"site"`
	Posts    []DefaultPost    `yaml:"posts"`
	Comments []DefaultComment `yaml:"comments"`
}

var (
	loadOnce sync.Once
	loaded   *Dataset
	loadErr  error
)

// Load は同梱データを解析して返す。解析はプロセス内で一度だけ行う。
func Load() (*Dataset, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(defaultsYAML)
	})
	return loaded, loadErr
}

// MustLoad はLoadの失敗時にpanicする。同梱データは埋め込み済みのため起動時にのみ失敗し得る。
func MustLoad() *Dataset {
	d, err := Load()
	if err != nil {
		panic(err)
	}
	return d
}

// Parse はYAMLからDatasetを構築する。
func Parse(data []byte) (*Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("同梱データの解析に失敗しました: %w", err)
	}
	return &d, nil
}

// FallbackPosts はフォールバック用の記事一覧をpublished_at降順で返す。
func (d *Dataset) FallbackPosts(includeDrafts bool) []*model.Post {
	posts := make([]*model.Post, 0, len(d.Posts))
	for _, p := range d.Posts {
		post := p.Post()
		if !includeDrafts && !post.IsPublished() {
			continue
		}
		posts = append(posts, post)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAtTs > posts[j].PublishedAtTs
	})
	return posts
}

// FallbackFeaturedPosts は公開中かつfeaturedの記事を最大limit件返す。
func (d *Dataset) FallbackFeaturedPosts(limit int) []*model.Post {
	featured := []*model.Post{}
	for _, p := range d.FallbackPosts(false) {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	if len(featured) > limit {
		featured = featured[:limit]
	}
	return featured
}

// FallbackPost はレガシーIDで既定記事を検索する。見つからない場合はnilを返す。
func (d *Dataset) FallbackPost(id string) *model.Post {
	for _, p := range d.Posts {
		if p.ID == id {
			return p.Post()
		}
	}
	return nil
}

// FallbackComments は既定記事のコメントをcreated_at降順で返す。
func (d *Dataset) FallbackComments(postID string) []*model.Comment {
	comments := []*model.Comment{}
	for _, c := range d.Comments {
		if c.PostID == postID {
			comments = append(comments, c.Comment())
		}
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAtTs > comments[j].CreatedAtTs
	})
	return comments
}
