package account

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードのハッシュ化と照合のインターフェース。
// 具体的なアルゴリズムは隠蔽され、サービス層はダイジェストを不透明な
// 文字列として扱う。
type Hasher interface {
	// Hash は平文パスワードからダイジェストを生成する。
	Hash(password string) (string, error)
	// Verify は平文パスワードとダイジェストの一致を検証する。
	Verify(password, digest string) bool
}

// BcryptHasher はbcryptによるHasher実装。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はデフォルトコストのBcryptHasherを生成する。
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash は平文パスワードからbcryptダイジェストを生成する。
func (h *BcryptHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	return string(digest), nil
}

// Verify は平文パスワードとbcryptダイジェストの一致を検証する。
func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// compile-time interface check
var _ Hasher = (*BcryptHasher)(nil)
