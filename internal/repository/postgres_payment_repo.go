package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/lib/pq"
)

// PostgresPaymentRepo はPostgreSQLを使用した決済記録リポジトリ。
// 決済済みカート行の突合削除（SettlementReconciler）も担う。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

const paymentColumns = `id, email, amount_minor, currency, transaction_id, cart_ids, menu_item_ids, status, paid_at, created_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*model.Payment, error) {
	p := &model.Payment{}
	var amount int64
	if err := row.Scan(
		&p.ID, &p.Email, &amount, &p.Currency, &p.TransactionID,
		pq.Array(&p.CartIDs), pq.Array(&p.MenuItemIDs),
		&p.Status, &p.PaidAt, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Amount = model.Amount(amount)
	return p, nil
}

// Create は決済記録を作成する。
// transaction_idの一意制約に衝突した場合はErrDuplicateを返し、既存の記録は変更しない。
func (r *PostgresPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	cartIDs := p.CartIDs
	if cartIDs == nil {
		cartIDs = []string{}
	}
	menuItemIDs := p.MenuItemIDs
	if menuItemIDs == nil {
		menuItemIDs = []string{}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, email, amount_minor, currency, transaction_id, cart_ids, menu_item_ids, status, paid_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::uuid[], $7::uuid[], $8, $9, $10)
		 ON CONFLICT (transaction_id) DO NOTHING`,
		p.ID, p.Email, p.Amount.Minor(), p.Currency, p.TransactionID,
		pq.Array(cartIDs), pq.Array(menuItemIDs),
		p.Status, p.PaidAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("決済記録の作成に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// FindByID は指定IDの決済記録を取得する。見つからない場合はnilを返す。
func (r *PostgresPaymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("決済記録の取得に失敗しました: %w", err)
	}
	return p, nil
}

// FindByTransactionID はプロバイダーの取引IDで決済記録を取得する。見つからない場合はnilを返す。
func (r *PostgresPaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`,
		transactionID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("取引IDによる決済記録の検索に失敗しました: %w", err)
	}
	return p, nil
}

// ListByEmail は支払ユーザーの決済記録を新しい順に返す。
func (r *PostgresPaymentRepo) ListByEmail(ctx context.Context, email string) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE email = $1 ORDER BY paid_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("決済履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	payments := []*model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("決済記録の読み取りに失敗しました: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("決済履歴の走査に失敗しました: %w", err)
	}
	return payments, nil
}

// DeleteSettledCartLines は記録済み決済が参照しているカート行のうち、
// 決済者本人のものを削除する。決済確定時のカート削除が失敗した行の後始末に使う。
func (r *PostgresPaymentRepo) DeleteSettledCartLines(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items c
		 USING payments p
		 WHERE c.user_email = p.email
		   AND c.id = ANY(p.cart_ids)`,
	)
	if err != nil {
		return 0, fmt.Errorf("決済済みカート行の削除に失敗しました: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

var (
	_ PaymentRepository    = (*PostgresPaymentRepo)(nil)
	_ SettlementReconciler = (*PostgresPaymentRepo)(nil)
)
