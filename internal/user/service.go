// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/repository"
)

// SignUpInput はサインアップ時に受け取るプロフィール。
type SignUpInput struct {
	Email    string
	Name     string
	PhotoURL string
}

// SignUpResult はサインアップの結果。
// 既に登録済みのemailの場合はInsertedがfalseになる。
type SignUpResult struct {
	Inserted   bool
	InsertedID string
}

// Service はユーザー管理のサービス層。
type Service struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users repository.UserRepository) *Service {
	return &Service{
		users: users,
		now:   time.Now,
	}
}

// SignUp はemailが未登録の場合のみユーザーを作成する。
// 同じemailで2回呼ばれてもユーザーは1件のみで、2回目はInserted=falseを返す。
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, model.NewInvalidRequestError("email is required")
	}

	now := s.now().UTC()
	u := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		PhotoURL:  strings.TrimSpace(in.PhotoURL),
		Role:      model.RoleDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	inserted, err := s.users.CreateIfAbsent(ctx, u)
	if err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("ユーザーの作成に失敗しました: %w", err))
	}
	if !inserted {
		return &SignUpResult{Inserted: false}, nil
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", u.ID),
	)
	return &SignUpResult{Inserted: true, InsertedID: u.ID}, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err))
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// Promote は指定IDのユーザーを管理者に昇格させる。
func (s *Service) Promote(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewInvalidIDError(id)
	}

	if err := s.users.UpdateRole(ctx, id, model.RoleAdmin); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return model.NewPersistenceError(fmt.Errorf("ロールの更新に失敗しました: %w", err))
	}

	slog.Info("ユーザーを管理者に昇格しました",
		slog.String("user_id", id),
	)
	return nil
}

// IsAdmin はemailのユーザーが管理者かどうかを返す。
// 問い合わせできるのは認証済み識別情報と同じemailのみで、
// 呼び出し元が管理者であっても他人のemailはForbiddenになる。
func (s *Service) IsAdmin(ctx context.Context, identity *model.Identity, email string) (bool, error) {
	if identity == nil || identity.Email != email {
		return false, model.NewForbiddenError()
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, model.NewPersistenceError(fmt.Errorf("ユーザーの取得に失敗しました: %w", err))
	}
	return u.IsAdmin(), nil
}

// Delete は指定IDのユーザーを削除する。
// 該当なしはUserNotFound、ストアの失敗はPersistenceErrorとして区別する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewInvalidIDError(id)
	}

	if err := s.users.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return model.NewPersistenceError(fmt.Errorf("ユーザーの削除に失敗しました: %w", err))
	}

	slog.Info("ユーザーを削除しました",
		slog.String("user_id", id),
	)
	return nil
}
