// Package menu はメニュー品目とレビューのドメインロジックを提供する。
package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/repository"
	"github.com/hitoshi/foodcapital/internal/security"
)

// ItemInput はメニュー品目の作成・更新時の入力。
type ItemInput struct {
	Name     string
	Recipe   string
	Image    string
	Category string
	Price    model.Amount
}

// ReviewInput はレビュー投稿時の入力。投稿者のemailは識別情報から取る。
type ReviewInput struct {
	Name    string
	Details string
	Rating  int
}

// Service はメニューとレビューのサービス層。
// 保存前に全てのテキスト項目をサニタイズする。
type Service struct {
	items     repository.MenuRepository
	reviews   repository.ReviewRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(items repository.MenuRepository, reviews repository.ReviewRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		items:     items,
		reviews:   reviews,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は全メニュー品目を返す。
func (s *Service) List(ctx context.Context) ([]*model.MenuItem, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("メニュー一覧の取得に失敗しました: %w", err))
	}
	if items == nil {
		items = []*model.MenuItem{}
	}
	return items, nil
}

// Get は指定IDのメニュー品目を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.MenuItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewInvalidIDError(id)
	}

	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("メニュー品目の取得に失敗しました: %w", err))
	}
	if item == nil {
		return nil, model.NewMenuItemNotFoundError()
	}
	return item, nil
}

// Create は新しいメニュー品目を作成する。
func (s *Service) Create(ctx context.Context, in ItemInput) (*model.MenuItem, error) {
	now := s.now().UTC()
	item := s.buildItem(uuid.NewString(), in, now)

	if err := s.items.Create(ctx, item); err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("メニュー品目の作成に失敗しました: %w", err))
	}

	slog.Info("メニュー品目を作成しました",
		slog.String("menu_item_id", item.ID),
	)
	return item, nil
}

// Put は指定IDのメニュー品目を更新する。存在しない場合はそのIDで作成する。
// 作成した場合はcreated=trueを返す。
func (s *Service) Put(ctx context.Context, id string, in ItemInput) (*model.MenuItem, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false, model.NewInvalidIDError(id)
	}

	now := s.now().UTC()
	item := s.buildItem(id, in, now)

	created, err := s.items.Upsert(ctx, item)
	if err != nil {
		return nil, false, model.NewPersistenceError(fmt.Errorf("メニュー品目の更新に失敗しました: %w", err))
	}

	slog.Info("メニュー品目を保存しました",
		slog.String("menu_item_id", id),
		slog.Bool("created", created),
	)
	return item, created, nil
}

// Delete は指定IDのメニュー品目を削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewInvalidIDError(id)
	}

	if err := s.items.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewMenuItemNotFoundError()
		}
		return model.NewPersistenceError(fmt.Errorf("メニュー品目の削除に失敗しました: %w", err))
	}

	slog.Info("メニュー品目を削除しました",
		slog.String("menu_item_id", id),
	)
	return nil
}

func (s *Service) buildItem(id string, in ItemInput, now time.Time) *model.MenuItem {
	return &model.MenuItem{
		ID:        id,
		Name:      s.sanitizer.PlainText(in.Name),
		Recipe:    s.sanitizer.PlainText(in.Recipe),
		Image:     s.sanitizer.ImageURL(in.Image),
		Category:  s.sanitizer.PlainText(in.Category),
		Price:     in.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ListReviews は全レビューを新しい順に返す。
func (s *Service) ListReviews(ctx context.Context) ([]*model.Review, error) {
	reviews, err := s.reviews.List(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err))
	}
	if reviews == nil {
		reviews = []*model.Review{}
	}
	return reviews, nil
}

// CreateReview は認証済みユーザーのレビューを作成する。
func (s *Service) CreateReview(ctx context.Context, identity *model.Identity, in ReviewInput) (*model.Review, error) {
	if identity == nil {
		return nil, model.NewUnauthenticatedError()
	}

	review := &model.Review{
		ID:        uuid.NewString(),
		Name:      s.sanitizer.PlainText(in.Name),
		Email:     identity.Email,
		Details:   s.sanitizer.RichText(in.Details),
		Rating:    in.Rating,
		CreatedAt: s.now().UTC(),
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("レビューの作成に失敗しました: %w", err))
	}
	return review, nil
}
