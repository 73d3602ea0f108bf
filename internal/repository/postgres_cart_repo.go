package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/lib/pq"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// Create はカート行を作成する。
func (r *PostgresCartRepo) Create(ctx context.Context, line *model.CartLine) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, menu_item_id, user_email, name, image, price_minor, quantity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		line.ID, line.MenuItemID, line.UserEmail, line.Name, line.Image, line.Price.Minor(), line.Quantity, line.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("カート行の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByEmail は所有者emailのカート行を追加順に返す。
func (r *PostgresCartRepo) ListByEmail(ctx context.Context, email string) ([]*model.CartLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, menu_item_id, user_email, name, image, price_minor, quantity, created_at
		 FROM cart_items
		 WHERE user_email = $1
		 ORDER BY created_at`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("カート一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	lines := []*model.CartLine{}
	for rows.Next() {
		line := &model.CartLine{}
		var price int64
		if err := rows.Scan(
			&line.ID, &line.MenuItemID, &line.UserEmail, &line.Name, &line.Image,
			&price, &line.Quantity, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("カート行の読み取りに失敗しました: %w", err)
		}
		line.Price = model.Amount(price)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カート一覧の走査に失敗しました: %w", err)
	}
	return lines, nil
}

// DeleteByID は指定IDのカート行を削除する。
func (r *PostgresCartRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("カート行の削除に失敗しました: %w", err)
	}
	return expectAffected(result)
}

// DeleteByIDsForUser は所有者emailに属し、かつidsに含まれるカート行を一括削除する。
// 他ユーザーの行や存在しないIDは削除対象にならない。
func (r *PostgresCartRepo) DeleteByIDsForUser(ctx context.Context, email string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_email = $1 AND id = ANY($2::uuid[])`,
		email, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("カート行の一括削除に失敗しました: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

var _ CartRepository = (*PostgresCartRepo)(nil)
