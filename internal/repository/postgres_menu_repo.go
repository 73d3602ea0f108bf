package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/foodcapital/internal/model"
)

// PostgresMenuRepo はPostgreSQLを使用したメニューリポジトリ。
type PostgresMenuRepo struct {
	db *sql.DB
}

// NewPostgresMenuRepo はPostgresMenuRepoを生成する。
func NewPostgresMenuRepo(db *sql.DB) *PostgresMenuRepo {
	return &PostgresMenuRepo{db: db}
}

const menuColumns = `id, name, recipe, image, category, price_minor, created_at, updated_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (*model.MenuItem, error) {
	item := &model.MenuItem{}
	var price int64
	if err := row.Scan(&item.ID, &item.Name, &item.Recipe, &item.Image, &item.Category, &price, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Price = model.Amount(price)
	return item, nil
}

// List は全メニュー品目をカテゴリ・名前順で返す。
func (r *PostgresMenuRepo) List(ctx context.Context) ([]*model.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items ORDER BY category, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("メニュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	items := []*model.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("メニュー行の読み取りに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メニュー一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// FindByID は指定IDの品目を取得する。見つからない場合はnilを返す。
func (r *PostgresMenuRepo) FindByID(ctx context.Context, id string) (*model.MenuItem, error) {
	item, err := scanMenuItem(r.db.QueryRowContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メニュー品目の取得に失敗しました: %w", err)
	}
	return item, nil
}

// Create は品目を作成する。
func (r *PostgresMenuRepo) Create(ctx context.Context, item *model.MenuItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (id, name, recipe, image, category, price_minor, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.Name, item.Recipe, item.Image, item.Category, item.Price.Minor(), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("メニュー品目の作成に失敗しました: %w", err)
	}
	return nil
}

// Upsert は指定IDの品目を更新し、存在しない場合は作成する。
// xmax = 0 は今回のINSERTで作成された行であることを示す。
func (r *PostgresMenuRepo) Upsert(ctx context.Context, item *model.MenuItem) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO menu_items (id, name, recipe, image, category, price_minor, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   recipe = EXCLUDED.recipe,
		   image = EXCLUDED.image,
		   category = EXCLUDED.category,
		   price_minor = EXCLUDED.price_minor,
		   updated_at = EXCLUDED.updated_at
		 RETURNING (xmax = 0)`,
		item.ID, item.Name, item.Recipe, item.Image, item.Category, item.Price.Minor(), item.CreatedAt, item.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("メニュー品目の更新に失敗しました: %w", err)
	}
	return inserted, nil
}

// DeleteByID は指定IDの品目を削除する。
func (r *PostgresMenuRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("メニュー品目の削除に失敗しました: %w", err)
	}
	return expectAffected(result)
}

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// List は全レビューを新しい順に返す。
func (r *PostgresReviewRepo) List(ctx context.Context) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, details, rating, created_at FROM reviews ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	reviews := []*model.Review{}
	for rows.Next() {
		rv := &model.Review{}
		if err := rows.Scan(&rv.ID, &rv.Name, &rv.Email, &rv.Details, &rv.Rating, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("レビュー行の読み取りに失敗しました: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レビュー一覧の走査に失敗しました: %w", err)
	}
	return reviews, nil
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, name, email, details, rating, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		review.ID, review.Name, review.Email, review.Details, review.Rating, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}
	return nil
}

var (
	_ MenuRepository   = (*PostgresMenuRepo)(nil)
	_ ReviewRepository = (*PostgresReviewRepo)(nil)
)
