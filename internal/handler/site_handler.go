package handler

import (
	"net/http"

	"github.com/sudhamayam/portfolio/internal/middleware"
	"github.com/sudhamayam/portfolio/internal/sitedata"
)

// SiteHandler はサイトプロフィールのHTTPハンドラー。
type SiteHandler struct {
	site    sitedata.SiteProfile
	isAdmin func(email string) bool
}

// NewSiteHandler はSiteHandlerを生成する。
func NewSiteHandler(site sitedata.SiteProfile, isAdmin func(email string) bool) *SiteHandler {
	return &SiteHandler{site: site, isAdmin: isAdmin}
}

// Get はサイトプロフィールと閲覧者向けのナビゲーションを返す。
// GET /api/site
func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	admin := false
	if email, ok := middleware.EmailFromContext(r.Context()); ok && h.isAdmin != nil {
		admin = h.isAdmin(email)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":        h.site.Name,
		"tagline":     h.site.Tagline,
		"timeline":    h.site.Timeline,
		"mediaCards":  h.site.MediaCards,
		"socialLinks": h.site.SocialLinks,
		"navLinks":    h.site.Nav(admin),
		"isAdmin":     admin,
	})
}
