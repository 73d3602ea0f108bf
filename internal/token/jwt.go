// Package token はアクセストークン（HS256 JWT）の発行と検証を提供する。
//
// トークンはクライアントが提示した識別クレームをそのまま埋め込み、
// 発行時刻（iat）と発行から1時間後の有効期限（exp）を付与して署名する。
// 失効リストは持たず、有効期限のみが無効化の手段となる。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/foodcapital/internal/model"
)

// TTL はトークンの有効期間。発行時刻から固定で1時間。
const TTL = time.Hour

var (
	// ErrSigning は署名鍵が利用できない場合のエラー。設定不備を表す。
	ErrSigning = errors.New("token signing failed")
	// ErrInvalidToken は署名検証失敗、期限切れ、クレーム不備のいずれかを表す。
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingEmail はクレームにemailが含まれない場合のエラー。
	ErrMissingEmail = errors.New("claim must contain email")
)

// 発行時に上書きする予約済みクレーム
var reservedClaims = []string{"iat", "exp", "nbf"}

// JWTIssuer はサーバー保持の秘密鍵でトークンを発行・検証する。
type JWTIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewJWTIssuer はJWTIssuerを生成する。
func NewJWTIssuer(secret string) *JWTIssuer {
	return &JWTIssuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock は時刻取得関数を差し替えたJWTIssuerを返す。テスト用。
func (j *JWTIssuer) WithClock(now func() time.Time) *JWTIssuer {
	return &JWTIssuer{secret: j.secret, now: now}
}

// Issue はクレームを埋め込んだ署名済みトークンを発行する。
// クレームは少なくともemailを含む必要がある。
func (j *JWTIssuer) Issue(claim model.Claim) (string, error) {
	if len(j.secret) == 0 {
		return "", fmt.Errorf("%w: secret is not configured", ErrSigning)
	}
	if claim.Email() == "" {
		return "", ErrMissingEmail
	}

	claims := jwt.MapClaims{}
	for k, v := range claim {
		claims[k] = v
	}
	for _, k := range reservedClaims {
		delete(claims, k)
	}

	now := j.now()
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(TTL))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、埋め込まれた識別情報を返す。
// DBへの問い合わせは行わない。
func (j *JWTIssuer) Verify(tokenString string) (*model.Identity, error) {
	if len(j.secret) == 0 {
		return nil, fmt.Errorf("%w: secret is not configured", ErrSigning)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claim := model.Claim{}
	for k, v := range claims {
		claim[k] = v
	}
	email := claim.Email()
	if email == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, ErrMissingEmail)
	}

	identity := &model.Identity{
		Email: email,
		Claim: claim,
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		identity.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}

	return identity, nil
}
