package middleware

import (
	"context"
	"sync"

	"github.com/hitoshi/foodcapital/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// identityContextKey は認証済みの識別情報を格納するキー。
	identityContextKey = contextKey("identity")
	// annotationsContextKey はログ出力用のリクエスト注記を格納するキー。
	annotationsContextKey = contextKey("annotations")
)

// IdentityFromContext はリクエストコンテキストから認証済みの識別情報を取得する。
// 認証ガードを通過したリクエストでのみ値が存在する。
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil || identity.Email == "" {
		return nil, false
	}
	return identity, true
}

// ContextWithIdentity はコンテキストに識別情報を注入する。
// テストやガード以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	if a := annotationsFromContext(ctx); a != nil {
		a.setEmail(identity.Email)
	}
	return context.WithValue(ctx, identityContextKey, identity)
}

// requestAnnotations は内側のハンドラーで判明した情報を
// 外側のログミドルウェアに伝えるための可変ホルダー。
type requestAnnotations struct {
	mu    sync.Mutex
	email string
}

func (a *requestAnnotations) setEmail(email string) {
	a.mu.Lock()
	a.email = email
	a.mu.Unlock()
}

func (a *requestAnnotations) Email() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.email
}

func withAnnotations(ctx context.Context) (context.Context, *requestAnnotations) {
	a := &requestAnnotations{}
	return context.WithValue(ctx, annotationsContextKey, a), a
}

func annotationsFromContext(ctx context.Context) *requestAnnotations {
	a, _ := ctx.Value(annotationsContextKey).(*requestAnnotations)
	return a
}
