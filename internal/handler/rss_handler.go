package handler

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sudhamayam/portfolio/internal/model"
)

// rssFeedLimit はRSSに含める最新記事の件数。
const rssFeedLimit = 20

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// RSSHandler は公開記事のRSS 2.0フィードを配信する。
type RSSHandler struct {
	store   ContentStore
	siteURL string
	title   string
	tagline string
}

// NewRSSHandler はRSSHandlerを生成する。siteURLは記事リンクの絶対URLの基点。
func NewRSSHandler(store ContentStore, siteURL, title, tagline string) *RSSHandler {
	return &RSSHandler{
		store:   store,
		siteURL: strings.TrimRight(siteURL, "/"),
		title:   title,
		tagline: tagline,
	}
}

// Feed はRSSフィードを返す。
// GET /feed.xml
func (h *RSSHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts := h.store.ListPosts(r.Context(), false)
	if len(posts) > rssFeedLimit {
		posts = posts[:rssFeedLimit]
	}

	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       h.title,
			Link:        h.siteURL + "/blog",
			Description: h.tagline,
			Items:       make([]rssItem, 0, len(posts)),
		},
	}
	if len(posts) > 0 {
		doc.Channel.LastBuildDate = postPubDate(posts[0])
	}
	for _, p := range posts {
		link := h.siteURL + "/blog/" + p.Slug
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Description: p.Excerpt,
			Category:    p.Category,
			PubDate:     postPubDate(p),
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		slog.Error("failed to encode rss feed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(out)
}

func postPubDate(p *model.Post) string {
	return time.UnixMilli(p.PublishedAtTs).UTC().Format(time.RFC1123Z)
}
