// Package payment は決済の確定処理を提供する。
//
// 決済は2回の独立した呼び出しで行われる。
//   - CreateIntent: 金額を最小通貨単位に変換し、決済プロバイダーにインテントを作成させる
//   - Finalize: クライアントがプロバイダー側で支払いを完了した後、決済記録を保存してカートを削除する
//
// 2つの呼び出しの間（カード情報の入力と認証）はクライアントとプロバイダーの間で行われ、
// このパッケージはカード情報に触れない。
package payment

import (
	"context"

	"github.com/hitoshi/foodcapital/internal/model"
)

// Provider は決済プロバイダーのインターフェース。
type Provider interface {
	// CreateIntent はカード決済限定のペイメントインテントを作成する。
	// プロバイダーが拒否した場合や到達不能な場合はエラーを返す。自動リトライはしない。
	CreateIntent(ctx context.Context, amount model.Amount, currency string) (*model.PaymentIntent, error)
}
