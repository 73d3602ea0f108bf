package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/foodcapital/internal/metrics"
	"github.com/hitoshi/foodcapital/internal/model"
)

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// token.JWTIssuerが満たす。
type TokenVerifier interface {
	Verify(tokenString string) (*model.Identity, error)
}

// RoleFinder はロール確認のためのユーザー検索インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type RoleFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthFailureRecorder は認証・認可失敗の記録先。metrics.Collectorが満たす。
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// Guard は認証ガードと認可ガードを組み合わせたパイプライン。
//
// Authenticated は認証のみ、Admin は認証の後に管理者ロール確認を行う。
// 認可ガードは認証ガードが渡す識別情報を引数として受け取るため、
// 認証を経ずに認可だけを適用する経路、逆順に適用する経路は構成できない。
type Guard struct {
	verifier TokenVerifier
	users    RoleFinder
	failures AuthFailureRecorder
}

// NewGuard はGuardを生成する。usersはAdminガードでのみ使用する。
func NewGuard(verifier TokenVerifier, users RoleFinder) *Guard {
	return &Guard{verifier: verifier, users: users}
}

// WithMetrics は失敗を記録するGuardを返す。
func (g *Guard) WithMetrics(m AuthFailureRecorder) *Guard {
	return &Guard{verifier: g.verifier, users: g.users, failures: m}
}

// identityHandler は認証済みの識別情報を受け取るハンドラー。
// 認証ガードの内側でのみ生成・呼び出しされる。
type identityHandler func(w http.ResponseWriter, r *http.Request, identity *model.Identity)

// Authenticated は認証ガードのみを適用するミドルウェアを返す。
func (g *Guard) Authenticated() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.authenticate(func(w http.ResponseWriter, r *http.Request, _ *model.Identity) {
			next.ServeHTTP(w, r)
		})
	}
}

// Admin は認証ガードの後に管理者ロール確認を適用するミドルウェアを返す。
func (g *Guard) Admin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.authenticate(g.authorizeAdmin(next))
	}
}

// authenticate はAuthorizationヘッダーのBearerトークンを検証し、
// 識別情報をコンテキストに注入してから次段へ渡す。DBへの問い合わせは行わない。
func (g *Guard) authenticate(next identityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			g.reject(w, http.StatusUnauthorized, model.NewUnauthenticatedError(), metrics.AuthFailureMissing)
			return
		}
		tokenString, ok := bearerToken(r)
		if !ok {
			g.reject(w, http.StatusUnauthorized, model.NewUnauthenticatedError(), metrics.AuthFailureInvalid)
			return
		}

		identity, err := g.verifier.Verify(tokenString)
		if err != nil {
			slog.Debug("token verification failed",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			g.reject(w, http.StatusUnauthorized, model.NewUnauthenticatedError(), metrics.AuthFailureInvalid)
			return
		}

		ctx := ContextWithIdentity(r.Context(), identity)
		next(w, r.WithContext(ctx), identity)
	})
}

// authorizeAdmin は識別情報のemailでユーザーを検索し、
// ロールがadminの場合のみ次段へ渡す。結果はキャッシュせず毎回読み直す。
func (g *Guard) authorizeAdmin(next http.Handler) identityHandler {
	return func(w http.ResponseWriter, r *http.Request, identity *model.Identity) {
		user, err := g.users.FindByEmail(r.Context(), identity.Email)
		if err != nil {
			slog.Error("failed to look up role",
				slog.String("email", identity.Email),
				slog.String("error", err.Error()),
			)
			WriteInternalServerError(w)
			return
		}
		if user == nil || !user.IsAdmin() {
			g.reject(w, http.StatusForbidden, model.NewForbiddenError(), metrics.AuthFailureForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (g *Guard) reject(w http.ResponseWriter, status int, apiErr *model.APIError, reason string) {
	if g.failures != nil {
		g.failures.RecordAuthFailure(reason)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="foodcapital"`)
	}
	WriteErrorResponse(w, status, apiErr)
}

// bearerToken はAuthorizationヘッダーから "Bearer <token>" 形式のトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
