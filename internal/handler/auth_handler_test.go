package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// mockAccountService はAccountServiceInterfaceのモック。
type mockAccountService struct {
	registerFn func(ctx context.Context, name, email, password string) (*model.User, error)
	loginFn    func(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	logoutFn   func(ctx context.Context, sessionID string) error
	findUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAccountService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	return m.registerFn(ctx, name, email, password)
}

func (m *mockAccountService) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAccountService) Logout(ctx context.Context, sessionID string) error {
	return m.logoutFn(ctx, sessionID)
}

func (m *mockAccountService) FindUser(ctx context.Context, userID string) (*model.User, error) {
	return m.findUserFn(ctx, userID)
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		CookieSecure:  false,
		SessionMaxAge: 3600,
	}
}

// 登録成功時に201とユーザー情報が返ることを検証
func TestAuthHandler_Register(t *testing.T) {
	svc := &mockAccountService{
		registerFn: func(ctx context.Context, name, email, password string) (*model.User, error) {
			return &model.User{ID: "user-1", Name: name, Email: email}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"name":"田中太郎","email":"tanaka@example.com","password":"password123"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Email != "tanaka@example.com" {
		t.Errorf("email = %q, want tanaka@example.com", resp.Email)
	}
	// レスポンスにパスワード情報を含まないこと
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response should not contain password fields")
	}
}

// メールアドレス重複が409になることを検証
func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	svc := &mockAccountService{
		registerFn: func(ctx context.Context, name, email, password string) (*model.User, error) {
			return nil, model.NewEmailTakenError(email)
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"name":"太郎","email":"taken@example.com","password":"password123"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

// ログイン成功時にセッションCookieが設定されることを検証
func TestAuthHandler_Login_SetsSessionCookie(t *testing.T) {
	svc := &mockAccountService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
			return &model.User{ID: "user-1", Email: email},
				&model.Session{ID: "session-abc", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)},
				nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"email":"tanaka@example.com","password":"password123"}`
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	cookies := rec.Result().Cookies()
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == "session_id" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("session_id cookie should be set")
	}
	if sessionCookie.Value != "session-abc" {
		t.Errorf("cookie value = %q, want session-abc", sessionCookie.Value)
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie should be HTTP only")
	}
}

// 認証失敗が401になることを検証
func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAccountService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
			return nil, nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"email":"a@example.com","password":"wrong"}`
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// ログアウトでCookieがクリアされることを検証
func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	var deletedSession string
	svc := &mockAccountService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			deletedSession = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-abc"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if deletedSession != "session-abc" {
		t.Errorf("deleted session = %q, want session-abc", deletedSession)
	}

	cookies := rec.Result().Cookies()
	var cleared bool
	for _, c := range cookies {
		if c.Name == "session_id" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie should be cleared (MaxAge < 0)")
	}
}

// Meが認証済みユーザーの情報を返すことを検証
func TestAuthHandler_Me(t *testing.T) {
	svc := &mockAccountService{
		findUserFn: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{ID: userID, Name: "田中太郎", Email: "tanaka@example.com"}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	rec := httptest.NewRecorder()
	h.Me(rec, authedRequest(http.MethodGet, "/auth/me", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "user-1" {
		t.Errorf("id = %q, want user-1", resp.ID)
	}
}
