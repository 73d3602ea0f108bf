// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Role はユーザーの権限レベルを表す。
type Role string

const (
	// RoleDefault は未設定（一般ユーザー）を表す。
	RoleDefault Role = ""
	// RoleAdmin は管理者を表す。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// emailは一意で、初回サインイン時に1回だけ作成される。
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin はユーザーが管理者かどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Claim はトークンに埋め込まれる識別情報。
// 少なくともemailを含み、その他のプロフィール項目は任意。
type Claim map[string]any

// Email はクレームに含まれるemailを返す。含まれない場合は空文字列を返す。
func (c Claim) Email() string {
	email, _ := c["email"].(string)
	return strings.TrimSpace(email)
}

// Identity は認証ガードを通過したリクエストの識別情報。
type Identity struct {
	Email     string
	Claim     Claim
	IssuedAt  time.Time
	ExpiresAt time.Time
}
