package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/repository"
)

// --- モック ---

// mockUserRepo はemailで一意になるインメモリのUserRepository。
type mockUserRepo struct {
	byEmail map[string]*model.User

	listFn       func(ctx context.Context) ([]*model.User, error)
	createFn     func(ctx context.Context, user *model.User) (bool, error)
	updateRoleFn func(ctx context.Context, id string, role model.Role) error
	deleteByIDFn func(ctx context.Context, id string) error
	findFn       func(ctx context.Context, email string) (*model.User, error)
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: map[string]*model.User{}}
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findFn != nil {
		return m.findFn(ctx, email)
	}
	return m.byEmail[email], nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	var users []*model.User
	for _, u := range m.byEmail {
		users = append(users, u)
	}
	return users, nil
}

func (m *mockUserRepo) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return false, nil
	}
	m.byEmail[user.Email] = user
	return true, nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, role)
	}
	for _, u := range m.byEmail {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	for email, u := range m.byEmail {
		if u.ID == id {
			delete(m.byEmail, email)
			return nil
		}
	}
	return repository.ErrNotFound
}

func assertAPIErrorCode(t *testing.T, err error, want string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != want {
		t.Errorf("code = %q, want %q", apiErr.Code, want)
	}
}

// --- テスト ---

// TestService_SignUp_Idempotent は同じemailで2回サインアップしても1件のみ作成されることを検証する。
func TestService_SignUp_Idempotent(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.SignUp(ctx, SignUpInput{Email: "u@x.com", Name: "U"})
	if err != nil {
		t.Fatalf("first SignUp error = %v", err)
	}
	if !first.Inserted || first.InsertedID == "" {
		t.Errorf("first result = %+v, want inserted with id", first)
	}

	second, err := svc.SignUp(ctx, SignUpInput{Email: "u@x.com", Name: "U again"})
	if err != nil {
		t.Fatalf("second SignUp error = %v", err)
	}
	if second.Inserted {
		t.Error("second SignUp should be a no-op")
	}
	if len(repo.byEmail) != 1 {
		t.Errorf("user count = %d, want 1", len(repo.byEmail))
	}
	if repo.byEmail["u@x.com"].Name != "U" {
		t.Errorf("existing profile should be kept, got name %q", repo.byEmail["u@x.com"].Name)
	}
}

func TestService_SignUp_RequiresEmail(t *testing.T) {
	svc := NewService(newMockUserRepo())

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "  "})
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

func TestService_SignUp_StoreFailure(t *testing.T) {
	repo := newMockUserRepo()
	repo.createFn = func(ctx context.Context, user *model.User) (bool, error) {
		return false, errors.New("connection refused")
	}
	svc := NewService(repo)

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "u@x.com"})
	assertAPIErrorCode(t, err, model.ErrCodePersistence)
}

func TestService_List_EmptyIsNotNil(t *testing.T) {
	svc := NewService(newMockUserRepo())

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if users == nil {
		t.Error("List should return an empty slice, not nil")
	}
}

func TestService_Promote(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, SignUpInput{Email: "u@x.com"})
	if err != nil {
		t.Fatalf("SignUp error = %v", err)
	}

	if err := svc.Promote(ctx, res.InsertedID); err != nil {
		t.Fatalf("Promote error = %v", err)
	}
	if !repo.byEmail["u@x.com"].IsAdmin() {
		t.Error("user should be admin after Promote")
	}
}

func TestService_Promote_Errors(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		updateFn func(ctx context.Context, id string, role model.Role) error
		wantCode string
	}{
		{
			name:     "malformed id",
			id:       "not-a-uuid",
			wantCode: model.ErrCodeInvalidID,
		},
		{
			name:     "no such user",
			id:       "5f0c7a52-8f7e-4b8a-9d43-0f1de1c1a001",
			wantCode: model.ErrCodeUserNotFound,
		},
		{
			name: "store failure",
			id:   "5f0c7a52-8f7e-4b8a-9d43-0f1de1c1a001",
			updateFn: func(ctx context.Context, id string, role model.Role) error {
				return errors.New("connection refused")
			},
			wantCode: model.ErrCodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockUserRepo()
			repo.updateRoleFn = tt.updateFn
			svc := NewService(repo)

			err := svc.Promote(context.Background(), tt.id)
			assertAPIErrorCode(t, err, tt.wantCode)
		})
	}
}

// TestService_IsAdmin_OtherEmailForbidden は他人のemailの問い合わせが
// 呼び出し元のロールに関わらずForbiddenになることを検証する。
func TestService_IsAdmin_OtherEmailForbidden(t *testing.T) {
	repo := newMockUserRepo()
	repo.byEmail["a@x.com"] = &model.User{ID: "1", Email: "a@x.com", Role: model.RoleAdmin}
	repo.byEmail["b@x.com"] = &model.User{ID: "2", Email: "b@x.com"}
	svc := NewService(repo)

	for _, caller := range []string{"a@x.com", "b@x.com"} {
		target := "b@x.com"
		if caller == "b@x.com" {
			target = "a@x.com"
		}
		_, err := svc.IsAdmin(context.Background(), &model.Identity{Email: caller}, target)
		assertAPIErrorCode(t, err, model.ErrCodeForbidden)
	}
}

func TestService_IsAdmin_Self(t *testing.T) {
	repo := newMockUserRepo()
	repo.byEmail["a@x.com"] = &model.User{ID: "1", Email: "a@x.com", Role: model.RoleAdmin}
	repo.byEmail["b@x.com"] = &model.User{ID: "2", Email: "b@x.com"}
	svc := NewService(repo)
	ctx := context.Background()

	tests := []struct {
		email string
		want  bool
	}{
		{"a@x.com", true},
		{"b@x.com", false},
		{"ghost@x.com", false},
	}
	for _, tt := range tests {
		got, err := svc.IsAdmin(ctx, &model.Identity{Email: tt.email}, tt.email)
		if err != nil {
			t.Fatalf("IsAdmin(%q) error = %v", tt.email, err)
		}
		if got != tt.want {
			t.Errorf("IsAdmin(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

// TestService_Delete_DistinguishesNotFound は該当なしとストア失敗を区別することを検証する。
func TestService_Delete_DistinguishesNotFound(t *testing.T) {
	id := "5f0c7a52-8f7e-4b8a-9d43-0f1de1c1a001"

	repo := newMockUserRepo()
	svc := NewService(repo)
	assertAPIErrorCode(t, svc.Delete(context.Background(), id), model.ErrCodeUserNotFound)

	repo.deleteByIDFn = func(ctx context.Context, id string) error {
		return errors.New("connection refused")
	}
	assertAPIErrorCode(t, svc.Delete(context.Background(), id), model.ErrCodePersistence)
}

func TestService_Delete_Success(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, SignUpInput{Email: "u@x.com"})
	if err != nil {
		t.Fatalf("SignUp error = %v", err)
	}
	if err := svc.Delete(ctx, res.InsertedID); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if len(repo.byEmail) != 0 {
		t.Errorf("user count = %d, want 0", len(repo.byEmail))
	}
}
