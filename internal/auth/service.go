// Package auth は管理者のOAuthログインとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sudhamayam/portfolio/internal/model"
	"github.com/sudhamayam/portfolio/internal/repository"
)

// ErrAccessDenied は管理者以外のアカウントでログインしようとした場合のエラー。
var ErrAccessDenied = errors.New("access denied")

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	Provider       string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int    // セッション有効期間（秒）
	AdminEmail    string // 管理者メールアドレス。空の場合は誰もログインできない
}

// Service は管理者認証のビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(oauth OAuthProvider, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		oauth:       oauth,
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// IsAdmin はemailが管理者かどうかを返す。
func (s *Service) IsAdmin(email string) bool {
	return IsAdminEmail(email, s.config.AdminEmail)
}

// HandleCallback はOAuthコールバックを処理し、管理者であればセッションを発行する。
// 管理者以外、またはメールアドレス未確認のアカウントにはErrAccessDeniedを返す。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	if !userInfo.EmailVerified || !s.IsAdmin(userInfo.Email) {
		slog.WarnContext(ctx, "管理者以外のログインを拒否しました",
			slog.String("email", userInfo.Email),
			slog.Bool("email_verified", userInfo.EmailVerified),
			slog.String("provider", userInfo.Provider),
		)
		return nil, ErrAccessDenied
	}

	session, err := s.createSession(ctx, NormalizeEmail(userInfo.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.InfoContext(ctx, "管理者がログインしました",
		slog.String("email", session.Email),
		slog.String("provider", userInfo.Provider),
	)
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, email string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		Email:     email,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
