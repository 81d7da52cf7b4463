// Package model はドメインモデルを定義する。
package model

import "time"

// User はストアの利用ユーザーを表す。
// メールアドレスは完全一致でユニーク（大文字小文字は区別する）。
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordDigest string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
