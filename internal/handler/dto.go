package handler

import "github.com/sudhamayam/portfolio/internal/model"

// postResponse は記事のAPIレスポンス。
type postResponse struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	Excerpt         string   `json:"excerpt"`
	Content         []string `json:"content"`
	Category        string   `json:"category"`
	PublishedAt     string   `json:"publishedAt"`
	ReadTimeMinutes int      `json:"readTimeMinutes"`
	CoverGradient   string   `json:"coverGradient"`
	Status          string   `json:"status"`
	Featured        bool     `json:"featured"`
	SEODescription  string   `json:"seoDescription"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID        string `json:"id"`
	PostID    string `json:"postId"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// statsResponse は管理画面向け集計のAPIレスポンス。
type statsResponse struct {
	TotalPosts     int `json:"totalPosts"`
	PublishedPosts int `json:"publishedPosts"`
	TotalComments  int `json:"totalComments"`
	Categories     int `json:"categories"`
}

func toPostResponse(p *model.Post) postResponse {
	content := p.Content
	if content == nil {
		content = []string{}
	}
	return postResponse{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		Excerpt:         p.Excerpt,
		Content:         content,
		Category:        p.Category,
		PublishedAt:     p.PublishedAt,
		ReadTimeMinutes: p.ReadTimeMinutes,
		CoverGradient:   p.CoverGradient,
		Status:          string(p.Status),
		Featured:        p.Featured,
		SEODescription:  p.SEODescription,
	}
}

func toPostResponses(posts []*model.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    c.Author,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
	}
}

func toCommentResponses(comments []*model.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}

func toStatsResponse(s *model.BlogStats) statsResponse {
	return statsResponse{
		TotalPosts:     s.TotalPosts,
		PublishedPosts: s.PublishedPosts,
		TotalComments:  s.TotalComments,
		Categories:     s.Categories,
	}
}
