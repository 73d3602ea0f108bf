// Package cart はカート行のドメインロジックを提供する。
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/repository"
	"github.com/hitoshi/foodcapital/internal/security"
)

// AddInput はカートへの追加時の入力。
type AddInput struct {
	MenuItemID string
	UserEmail  string
	Name       string
	Image      string
	Price      model.Amount
	Quantity   int
}

// Service はカートのサービス層。
type Service struct {
	lines     repository.CartRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(lines repository.CartRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		lines:     lines,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Add はカート行を作成する。数量の指定がない場合は1とする。
func (s *Service) Add(ctx context.Context, in AddInput) (*model.CartLine, error) {
	if _, err := uuid.Parse(in.MenuItemID); err != nil {
		return nil, model.NewInvalidIDError(in.MenuItemID)
	}
	email := strings.TrimSpace(in.UserEmail)
	if email == "" {
		return nil, model.NewInvalidRequestError("userEmail is required")
	}

	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	line := &model.CartLine{
		ID:         uuid.NewString(),
		MenuItemID: in.MenuItemID,
		UserEmail:  email,
		Name:       s.sanitizer.PlainText(in.Name),
		Image:      s.sanitizer.ImageURL(in.Image),
		Price:      in.Price,
		Quantity:   quantity,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.lines.Create(ctx, line); err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("カート行の作成に失敗しました: %w", err))
	}
	return line, nil
}

// List は所有者emailのカート行を返す。該当がない場合は空のスライスを返す。
func (s *Service) List(ctx context.Context, email string) ([]*model.CartLine, error) {
	lines, err := s.lines.ListByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("カートの取得に失敗しました: %w", err))
	}
	if lines == nil {
		lines = []*model.CartLine{}
	}
	return lines, nil
}

// Remove は指定IDのカート行を削除する。
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewInvalidIDError(id)
	}

	if err := s.lines.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewCartItemNotFoundError()
		}
		return model.NewPersistenceError(fmt.Errorf("カート行の削除に失敗しました: %w", err))
	}
	return nil
}
