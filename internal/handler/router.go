package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sudhamayam/portfolio/internal/metrics"
	"github.com/sudhamayam/portfolio/internal/middleware"
	"github.com/sudhamayam/portfolio/internal/sitedata"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	Gatherer          prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// コンテンツ
	Store   ContentStore
	Site    sitedata.SiteProfile
	SiteURL string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CORS → Session → CSRF → RequireAdmin(/api/admin)
//
// /health と /metrics はセッションを読まない。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(metrics.Middleware(collector))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	isAdmin := deps.AuthService.IsAdmin
	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	postHandler := NewPostHandler(deps.Store, isAdmin)
	adminHandler := NewAdminHandler(deps.Store)
	commentHandler := NewCommentHandler(deps.Store)
	siteHandler := NewSiteHandler(deps.Site, isAdmin)
	rssHandler := NewRSSHandler(deps.Store, deps.SiteURL, deps.Site.Name, deps.Site.Tagline)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))

		// OAuthフロー
		r.Route("/auth", func(r chi.Router) {
			r.Get("/google/login", authHandler.Login)
			r.Get("/google/callback", authHandler.Callback)
			r.Get("/me", authHandler.Me)
			r.With(middleware.NewCSRFMiddleware(deps.CSRFConfig)).Post("/logout", authHandler.Logout)
		})

		r.Get("/feed.xml", rssHandler.Feed)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))
			r.Get("/site", siteHandler.Get)

			// 公開ブログ
			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postHandler.ListPosts)
				r.Get("/featured", postHandler.ListFeaturedPosts)
				r.Get("/{id}", postHandler.GetPost)
				r.Get("/{id}/comments", postHandler.ListComments)
			})
			r.Get("/categories", postHandler.ListCategories)
			r.Post("/comments", commentHandler.AddComment)
			r.Post("/newsletter", commentHandler.Subscribe)

			// 管理画面
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.NewRequireAdminMiddleware(isAdmin))

				r.Get("/stats", adminHandler.Stats)
				r.Get("/posts", adminHandler.ListPosts)
				r.Post("/posts", adminHandler.CreatePost)
				r.Patch("/posts/{id}", adminHandler.UpdatePost)
			})
		})
	})

	return r
}
