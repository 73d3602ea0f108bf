package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/foodcapital/internal/cart"
	"github.com/hitoshi/foodcapital/internal/menu"
	"github.com/hitoshi/foodcapital/internal/middleware"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/payment"
	"github.com/hitoshi/foodcapital/internal/repository"
	"github.com/hitoshi/foodcapital/internal/security"
	"github.com/hitoshi/foodcapital/internal/token"
	"github.com/hitoshi/foodcapital/internal/user"
)

// --- ルーターテスト用のインメモリストア ---

// memStore は全リポジトリの状態を1つのロックで保持する。
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User // email -> user
	menu     map[string]*model.MenuItem
	reviews  []*model.Review
	cart     map[string]*model.CartLine
	payments map[string]*model.Payment // transaction id -> payment

	// 障害注入
	failPaymentInsert bool
	failCartClear     bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*model.User{},
		menu:     map[string]*model.MenuItem{},
		cart:     map[string]*model.CartLine{},
		payments: map[string]*model.Payment{},
	}
}

var errStoreDown = errors.New("store unavailable")

type memUserRepo struct{ s *memStore }

func (r memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r memUserRepo) List(ctx context.Context) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (r memUserRepo) CreateIfAbsent(ctx context.Context, u *model.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.Email]; ok {
		return false, nil
	}
	copied := *u
	r.s.users[u.Email] = &copied
	return true, nil
}

func (r memUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r memUserRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for email, u := range r.s.users {
		if u.ID == id {
			delete(r.s.users, email)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memMenuRepo struct{ s *memStore }

func (r memMenuRepo) List(ctx context.Context) ([]*model.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := make([]*model.MenuItem, 0, len(r.s.menu))
	for _, item := range r.s.menu {
		items = append(items, item)
	}
	return items, nil
}

func (r memMenuRepo) FindByID(ctx context.Context, id string) (*model.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.menu[id], nil
}

func (r memMenuRepo) Create(ctx context.Context, item *model.MenuItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.menu[item.ID] = item
	return nil
}

func (r memMenuRepo) Upsert(ctx context.Context, item *model.MenuItem) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, exists := r.s.menu[item.ID]
	r.s.menu[item.ID] = item
	return !exists, nil
}

func (r memMenuRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.menu[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.menu, id)
	return nil
}

type memReviewRepo struct{ s *memStore }

func (r memReviewRepo) List(ctx context.Context) ([]*model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*model.Review(nil), r.s.reviews...), nil
}

func (r memReviewRepo) Create(ctx context.Context, review *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reviews = append([]*model.Review{review}, r.s.reviews...)
	return nil
}

type memCartRepo struct{ s *memStore }

func (r memCartRepo) Create(ctx context.Context, line *model.CartLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cart[line.ID] = line
	return nil
}

func (r memCartRepo) ListByEmail(ctx context.Context, email string) ([]*model.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var lines []*model.CartLine
	for _, line := range r.s.cart {
		if line.UserEmail == email {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (r memCartRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cart[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.cart, id)
	return nil
}

func (r memCartRepo) DeleteByIDsForUser(ctx context.Context, email string, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCartClear {
		return 0, errStoreDown
	}
	var n int64
	for _, id := range ids {
		if line, ok := r.s.cart[id]; ok && line.UserEmail == email {
			delete(r.s.cart, id)
			n++
		}
	}
	return n, nil
}

type memPaymentRepo struct{ s *memStore }

func (r memPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPaymentInsert {
		return errStoreDown
	}
	if _, ok := r.s.payments[p.TransactionID]; ok {
		return repository.ErrDuplicate
	}
	r.s.payments[p.TransactionID] = p
	return nil
}

func (r memPaymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r memPaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.payments[transactionID], nil
}

func (r memPaymentRepo) ListByEmail(ctx context.Context, email string) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.s.payments {
		if p.Email == email {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeProvider は受け取った金額を記録する決済プロバイダー。
type fakeProvider struct {
	mu      sync.Mutex
	amounts []model.Amount
	err     error
}

func (p *fakeProvider) CreateIntent(ctx context.Context, amount model.Amount, currency string) (*model.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amounts = append(p.amounts, amount)
	if p.err != nil {
		return nil, p.err
	}
	return &model.PaymentIntent{ID: "pi_test", Amount: amount, Currency: currency, ClientSecret: "pi_test_secret"}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }

// --- テスト用アプリケーション ---

const routerTestSecret = "router-test-secret"

type testApp struct {
	store    *memStore
	provider *fakeProvider
	issuer   *token.JWTIssuer
	router   http.Handler
}

func newTestApp(t *testing.T, opts ...func(*RouterDeps)) *testApp {
	t.Helper()

	store := newMemStore()
	provider := &fakeProvider{}
	issuer := token.NewJWTIssuer(routerTestSecret)
	sanitizer := security.NewTextSanitizer()
	users := memUserRepo{store}

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	deps := &RouterDeps{
		Guard:              middleware.NewGuard(issuer, users),
		RateLimiter:        limiter,
		CORSAllowedOrigins: []string{"*"},
		DB:                 fakePinger{},
		TokenIssuer:        issuer,
		UserService:        user.NewService(users),
		MenuService:        menu.NewService(memMenuRepo{store}, memReviewRepo{store}, sanitizer),
		CartService:        cart.NewService(memCartRepo{store}, sanitizer),
		PaymentService:     payment.NewCoordinator(provider, memPaymentRepo{store}, memCartRepo{store}, nil),
	}
	for _, opt := range opts {
		opt(deps)
	}

	return &testApp{
		store:    store,
		provider: provider,
		issuer:   issuer,
		router:   NewRouter(deps),
	}
}

// tokenFor はemailの有効なトークンを発行する。
func (a *testApp) tokenFor(t *testing.T, email string) string {
	t.Helper()
	tok, err := a.issuer.Issue(model.Claim{"email": email})
	if err != nil {
		t.Fatalf("Issue error = %v", err)
	}
	return tok
}

// do はリクエストを送信し、レコーダーを返す。tokenが空の場合はAuthorizationを付けない。
func (a *testApp) do(t *testing.T, method, path, body, tok string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// seedUser はユーザーを直接ストアに登録する。
func (a *testApp) seedUser(id, email string, role model.Role) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	now := time.Now()
	a.store.users[email] = &model.User{ID: id, Email: email, Role: role, CreatedAt: now, UpdatedAt: now}
}
