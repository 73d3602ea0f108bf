// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/foodcapital/internal/model"
)

var (
	// ErrNotFound は対象レコードが0件だったことを表す。
	// 「0件一致」と「操作失敗」を呼び出し側で区別するために使う。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate は一意制約により挿入がスキップされたことを表す。
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はemailでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを作成日時順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// CreateIfAbsent はemailが未登録の場合のみユーザーを作成する。
	// 既に存在する場合は何もせずfalseを返す。
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)

	// UpdateRole は指定IDのユーザーのroleを更新する。
	// 対象がない場合はErrNotFoundを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) error

	// DeleteByID は指定IDのユーザーを削除する。対象がない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// MenuRepository はメニューデータの永続化インターフェース。
type MenuRepository interface {
	// List は全メニュー品目を返す。
	List(ctx context.Context) ([]*model.MenuItem, error)
	// FindByID は指定IDの品目を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.MenuItem, error)
	// Create は品目を作成する。
	Create(ctx context.Context, item *model.MenuItem) error
	// Upsert は指定IDの品目を更新し、存在しない場合は作成する。
	// 作成した場合はtrueを返す。
	Upsert(ctx context.Context, item *model.MenuItem) (bool, error)
	// DeleteByID は指定IDの品目を削除する。対象がない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// ReviewRepository はレビューデータの永続化インターフェース。
type ReviewRepository interface {
	// List は全レビューを新しい順に返す。
	List(ctx context.Context) ([]*model.Review, error)
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error
}

// CartRepository はカートデータの永続化インターフェース。
type CartRepository interface {
	// Create はカート行を作成する。
	Create(ctx context.Context, line *model.CartLine) error
	// ListByEmail は所有者emailのカート行を返す。
	ListByEmail(ctx context.Context, email string) ([]*model.CartLine, error)
	// DeleteByID は指定IDのカート行を削除する。対象がない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByIDsForUser は所有者emailに属し、かつidsに含まれるカート行を一括削除する。
	// 一致しないIDはスキップし、削除件数を返す。
	DeleteByIDsForUser(ctx context.Context, email string, ids []string) (int64, error)
}

// PaymentRepository は決済記録の永続化インターフェース。
// 決済記録は作成のみで、更新・削除は提供しない。
type PaymentRepository interface {
	// Create は決済記録を作成する。
	// 同一transaction_idの記録が既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, payment *model.Payment) error
	// FindByID は指定IDの決済記録を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	// FindByTransactionID はプロバイダーの取引IDで決済記録を取得する。見つからない場合はnilを返す。
	FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	// ListByEmail は支払ユーザーの決済記録を新しい順に返す。
	ListByEmail(ctx context.Context, email string) ([]*model.Payment, error)
}

// SettlementReconciler は決済済みにもかかわらず残っているカート行を削除する。
type SettlementReconciler interface {
	// DeleteSettledCartLines は記録済み決済が参照し、かつ同じ所有者のカート行を削除する。
	DeleteSettledCartLines(ctx context.Context) (int64, error)
}
