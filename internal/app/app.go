package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sudhamayam/portfolio/internal/auth"
	"github.com/sudhamayam/portfolio/internal/config"
	"github.com/sudhamayam/portfolio/internal/content"
	"github.com/sudhamayam/portfolio/internal/database"
	"github.com/sudhamayam/portfolio/internal/handler"
	"github.com/sudhamayam/portfolio/internal/importer"
	"github.com/sudhamayam/portfolio/internal/logger"
	"github.com/sudhamayam/portfolio/internal/metrics"
	"github.com/sudhamayam/portfolio/internal/middleware"
	"github.com/sudhamayam/portfolio/internal/repository"
	"github.com/sudhamayam/portfolio/internal/security"
	"github.com/sudhamayam/portfolio/internal/sitedata"
	"github.com/sudhamayam/portfolio/internal/worker/cleanup"
)

const (
	storeConnectTimeout = 10 * time.Second
	shutdownTimeout     = 30 * time.Second
)

// errStoreNotConfigured はストアを必要とするサブコマンドでストアが未設定の場合に返す。
var errStoreNotConfigured = errors.New("store is not configured: set DATABASE_URL or MONGO_URL")

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数のConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(healthcheckURL(port))
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandMigrate:
		return runMigrate(ctx, cfg)
	case CommandSeed:
		return runSeed(ctx, cfg)
	case CommandImport:
		return runImport(ctx, cfg, commandArgs(args))
	default:
		return runServe(ctx, cfg)
	}
}

// storeBundle は選択されたドライバーで構築したリポジトリ一式。
type storeBundle struct {
	repos      *repository.ContentRepositories
	configured bool
	close      func()
}

// openStore は設定に応じてPostgreSQL・MongoDBに接続する。
// 接続URLが空の場合はインメモリのリポジトリを返し、configuredをfalseにする。
// その場合もセッションはメモリ上で保持される。
func openStore(ctx context.Context, cfg *config.Config) (*storeBundle, error) {
	if cfg.StoreURL() == "" {
		slog.Warn("store is not configured; serving bundled content",
			slog.String("store_driver", cfg.StoreDriver),
		)
		return &storeBundle{
			repos: repository.NewMemoryStore().Repositories(),
			close: func() {},
		}, nil
	}

	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
		defer cancel()

		client, db, err := database.OpenMongo(connectCtx, cfg.MongoURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		if err := repository.EnsureMongoIndexes(connectCtx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}

		slog.Info("mongo connection established", slog.String("database", db.Name()))
		return &storeBundle{
			repos:      repository.NewMongoRepositories(db),
			configured: true,
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					slog.Error("failed to disconnect mongo", slog.String("error", err.Error()))
				}
			},
		}, nil
	default:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Ping(ctx, db, storeConnectTimeout); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		slog.Info("database connection established",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		)
		return &storeBundle{
			repos:      repository.NewPostgresRepositories(db),
			configured: true,
			close:      func() { db.Close() },
		}, nil
	}
}

// components はサーバーを構成するサービス群。
type components struct {
	dataset   *sitedata.Dataset
	service   *content.Service
	store     *content.Store
	registry  *prometheus.Registry
	collector *metrics.Collector
	auth      *auth.Service
}

// newComponents はリポジトリからドメインサービスを組み立てる。
// ストア未設定の場合はcontent.Serviceを持たず、読み取りは同梱データで応答する。
func newComponents(cfg *config.Config, bundle *storeBundle, log *slog.Logger) (*components, error) {
	dataset, err := sitedata.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load bundled dataset: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(registry)

	var service *content.Service
	if bundle.configured {
		service = content.NewService(
			bundle.repos.Posts, bundle.repos.Comments, bundle.repos.Subscribers,
			security.NewTextSanitizer(), log,
		)
	}

	store := content.NewStore(service, dataset, content.StoreOptions{
		SeedOnRead: cfg.SeedOnStart,
		Metrics:    collector,
		Logger:     log,
	})

	oauthProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	authService := auth.NewService(oauthProvider, bundle.repos.Sessions, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		AdminEmail:    cfg.AdminEmail,
	})
	if !cfg.OAuthEnabled() {
		log.Warn("ADMIN_EMAIL is not set; admin sign-in is disabled")
	}

	return &components{
		dataset:   dataset,
		service:   service,
		store:     store,
		registry:  registry,
		collector: collector,
		auth:      authService,
	}, nil
}

// router は全エンドポイントを持つHTTPハンドラーを構築する。
func (c *components) router(cfg *config.Config, bundle *storeBundle, log *slog.Logger) http.Handler {
	return handler.NewRouter(&handler.RouterDeps{
		SessionFinder:     bundle.repos.Sessions,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger:   log,
		Metrics:  c.collector,
		Gatherer: c.registry,

		AuthService: c.auth,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		Store:   c.store,
		Site:    c.dataset.Site,
		SiteURL: cfg.SiteURL,
	})
}

// runServe はAPIサーバーモードで起動する。
// ストアへ接続し、全依存関係をワイヤリングし、HTTPサーバーとセッションのクリーンアップジョブを起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	log := slog.Default()

	// 1. ストア接続
	bundle, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer bundle.close()

	// 2. サービスとルーターの構築
	comps, err := newComponents(cfg, bundle, log)
	if err != nil {
		return err
	}
	router := comps.router(cfg, bundle, log)

	// 3. 期限切れセッションのクリーンアップ
	go cleanup.NewCleanupJob(bundle.repos.Sessions, log).Start(ctx, cleanup.DefaultInterval)

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.Bool("store_configured", bundle.configured),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok && err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はストアのスキーマを最新化する。
// PostgreSQLでは未適用マイグレーションを順番に適用し、MongoDBではユニークインデックスを作成する。
func runMigrate(ctx context.Context, cfg *config.Config) error {
	if cfg.StoreURL() == "" {
		return errStoreNotConfigured
	}

	if cfg.StoreDriver == config.StoreDriverMongo {
		bundle, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		bundle.close()
		slog.Info("mongo indexes ensured")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runSeed は既定の記事とコメントのシードを1回実行し、挿入件数をログに出す。
func runSeed(ctx context.Context, cfg *config.Config) error {
	if cfg.StoreURL() == "" {
		return errStoreNotConfigured
	}

	bundle, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer bundle.close()

	comps, err := newComponents(cfg, bundle, slog.Default())
	if err != nil {
		return err
	}

	result, err := comps.store.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed completed",
		slog.Int("inserted_posts", result.InsertedPosts),
		slog.Int("inserted_comments", result.InsertedComments),
	)
	return nil
}

// runImport は外部のRSS/Atomフィードを取得し、各エントリを下書き記事として作成する。
func runImport(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return errors.New("usage: portfolio import <feed-url>")
	}
	feedURL := args[0]

	if cfg.StoreURL() == "" {
		return errStoreNotConfigured
	}

	bundle, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer bundle.close()

	log := slog.Default()
	comps, err := newComponents(cfg, bundle, log)
	if err != nil {
		return err
	}

	im := importer.New(
		comps.service, bundle.repos.Posts,
		security.NewURLGuard(), security.NewTextSanitizer(),
		comps.collector, log,
		importer.Config{Timeout: cfg.ImportTimeout, MaxSize: cfg.ImportMaxSize},
	)

	result, err := im.Import(ctx, feedURL)
	slog.Info("import finished",
		slog.String("feed_url", feedURL),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
	)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

// healthcheckURL はローカルで待ち受けるサーバーの/healthのURLを返す。
func healthcheckURL(port string) string {
	return fmt.Sprintf("http://localhost:%s/health", port)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(target string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
