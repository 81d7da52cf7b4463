// Package account はユーザー登録・ログイン・セッション管理を提供する。
package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service はアカウント管理のサービス層。
type Service struct {
	userRepo      repository.UserRepository
	sessionRepo   repository.SessionRepository
	hasher        Hasher
	sessionMaxAge time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, hasher Hasher, sessionMaxAge time.Duration) *Service {
	return &Service{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		hasher:        hasher,
		sessionMaxAge: sessionMaxAge,
	}
}

// Register は新規ユーザーを登録する。
// ユーザー本体と初期カートは同一トランザクションで作成されるため、
// カートを持たないユーザーが観測されることはない。
// メールアドレスが既に使われている場合はEMAIL_TAKENのAPIErrorを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if name == "" {
		return nil, model.NewInvalidRequestError("名前が空です")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewInvalidRequestError("メールアドレスの形式が不正です")
	}
	if len(password) < 8 {
		return nil, model.NewInvalidRequestError("パスワードは8文字以上を指定してください")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:             uuid.New().String(),
		Name:           name,
		Email:          email,
		PasswordDigest: digest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	cart := &model.Cart{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Current:   true,
		CreatedAt: now,
	}

	if err := s.userRepo.CreateWithCart(ctx, user, cart); err != nil {
		return nil, err
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", user.ID),
	)
	return user, nil
}

// Login はメールアドレスとパスワードを検証し、新しいセッションを発行する。
// メールアドレスの存在有無とパスワード不一致は区別せず、どちらも
// INVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if !s.hasher.Verify(password, user.PasswordDigest) {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionMaxAge),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	slog.Info("ログインしました",
		slog.String("user_id", user.ID),
	)
	return user, session, nil
}

// Logout は指定セッションを破棄する。
// セッションが既に存在しなくてもエラーにしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	return nil
}

// FindUser は指定IDのユーザーを返す。
// 見つからない場合はNOT_FOUNDではなくUNAUTHORIZEDを返す（セッションが
// 指すユーザーが消えているのは認証切れと同義のため）。
func (s *Service) FindUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// generateSessionID は暗号論的乱数から64文字のセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("セッションIDの生成に失敗しました: %w", err)
	}
	return hex.EncodeToString(b), nil
}
