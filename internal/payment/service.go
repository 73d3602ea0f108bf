package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/foodcapital/internal/metrics"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/repository"
)

// StatusSucceeded はクライアントがステータスを送らなかった場合の決済記録のステータス。
const StatusSucceeded = "succeeded"

// CartClearer は支払ユーザーのカート行を一括削除するインターフェース。
// repository.CartRepositoryの部分集合。
type CartClearer interface {
	DeleteByIDsForUser(ctx context.Context, email string, ids []string) (int64, error)
}

// SettlementRecorder は決済処理の結果の記録先。metrics.Collectorが満たす。
type SettlementRecorder interface {
	RecordPaymentIntent(outcome string)
	RecordSettlement(outcome string)
	RecordCartLinesCleared(count int64)
}

// FinalizeInput は決済確定の入力。
// TransactionIDはクライアントがプロバイダーで支払いを完了した後に受け取る取引ID。
type FinalizeInput struct {
	Email         string
	Amount        model.Amount
	TransactionID string
	CartIDs       []string
	MenuItemIDs   []string
	Status        string
	PaidAt        time.Time
}

// FinalizeResult は決済確定の結果。
type FinalizeResult struct {
	Payment *model.Payment
	// Duplicate は同じ取引IDの記録が既に存在し、新規作成しなかったことを表す。
	Duplicate bool
	// DeletedCount は今回削除したカート行の件数。
	DeletedCount int64
}

// CartNotClearedError は決済記録の保存後にカート削除だけが失敗したことを表す。
// 決済は記録済みのため、呼び出し側はRetryCartClearで削除のみを再試行できる。
type CartNotClearedError struct {
	PaymentID string
	Err       error
}

func (e *CartNotClearedError) Error() string {
	return fmt.Sprintf("payment %s recorded, cart not cleared: %v", e.PaymentID, e.Err)
}

func (e *CartNotClearedError) Unwrap() error {
	return e.Err
}

// Coordinator は決済インテントの作成と決済確定を行う。
type Coordinator struct {
	provider Provider
	payments repository.PaymentRepository
	carts    CartClearer
	recorder SettlementRecorder
	now      func() time.Time
}

// NewCoordinator はCoordinatorを生成する。recorderはnilでもよい。
func NewCoordinator(provider Provider, payments repository.PaymentRepository, carts CartClearer, recorder SettlementRecorder) *Coordinator {
	return &Coordinator{
		provider: provider,
		payments: payments,
		carts:    carts,
		recorder: recorder,
		now:      time.Now,
	}
}

// CreateIntent は金額のペイメントインテントを作成し、クライアントシークレットを含むインテントを返す。
// 金額が0以下の場合はプロバイダーを呼ばずにInvalidPriceを返す。
func (c *Coordinator) CreateIntent(ctx context.Context, price model.Amount) (*model.PaymentIntent, error) {
	if price <= 0 {
		return nil, model.NewInvalidPriceError()
	}

	intent, err := c.provider.CreateIntent(ctx, price, model.Currency)
	if err != nil {
		c.recordIntent(metrics.IntentProviderError)
		return nil, model.NewPaymentProviderError(err)
	}

	c.recordIntent(metrics.IntentCreated)
	slog.Info("ペイメントインテントを作成しました",
		slog.String("intent_id", intent.ID),
		slog.Int64("amount", price.Minor()),
	)
	return intent, nil
}

// Finalize は決済記録を保存してから、記録したカート行を削除する。
//
// 記録の保存に失敗した場合はカートに触れずPersistenceErrorを返す。
// 同じ取引IDの記録が既にある場合は新規作成せず、既存の記録に対して削除のみを行う。
// 削除は支払ユーザーが所有する行に限られ、存在しないIDは無視する。
// 記録後に削除だけが失敗した場合は*CartNotClearedErrorを返す。
func (c *Coordinator) Finalize(ctx context.Context, in FinalizeInput) (*FinalizeResult, error) {
	p, err := c.newPayment(in)
	if err != nil {
		return nil, err
	}

	duplicate := false
	if err := c.payments.Create(ctx, p); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			c.recordSettlement(metrics.SettlementRecordFailed)
			return nil, model.NewPersistenceError(fmt.Errorf("決済記録の保存に失敗しました: %w", err))
		}

		existing, findErr := c.payments.FindByTransactionID(ctx, p.TransactionID)
		if findErr != nil || existing == nil {
			c.recordSettlement(metrics.SettlementRecordFailed)
			return nil, model.NewPersistenceError(fmt.Errorf("既存の決済記録の取得に失敗しました: %w", errors.Join(err, findErr)))
		}
		slog.Warn("同じ取引IDの決済記録が既に存在します",
			slog.String("payment_id", existing.ID),
		)
		p = existing
		duplicate = true
	}

	deleted, err := c.clearCart(ctx, p)
	if err != nil {
		return nil, err
	}

	slog.Info("決済を確定しました",
		slog.String("payment_id", p.ID),
		slog.Int64("amount", p.Amount.Minor()),
		slog.Int64("deleted_count", deleted),
		slog.Bool("duplicate", duplicate),
	)
	return &FinalizeResult{Payment: p, Duplicate: duplicate, DeletedCount: deleted}, nil
}

// RetryCartClear は記録済みの決済に対してカート削除のみを再実行する。
// 決済の支払ユーザー本人だけが実行できる。
func (c *Coordinator) RetryCartClear(ctx context.Context, identity *model.Identity, paymentID string) (*FinalizeResult, error) {
	if _, err := uuid.Parse(paymentID); err != nil {
		return nil, model.NewInvalidIDError(paymentID)
	}

	p, err := c.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("決済記録の取得に失敗しました: %w", err))
	}
	if p == nil {
		return nil, model.NewPaymentNotFoundError()
	}
	if identity == nil || identity.Email != p.Email {
		return nil, model.NewForbiddenError()
	}

	deleted, err := c.clearCart(ctx, p)
	if err != nil {
		return nil, err
	}
	return &FinalizeResult{Payment: p, DeletedCount: deleted}, nil
}

// History は認証済みユーザー自身の決済記録を新しい順に返す。
func (c *Coordinator) History(ctx context.Context, identity *model.Identity) ([]*model.Payment, error) {
	if identity == nil {
		return nil, model.NewUnauthenticatedError()
	}

	payments, err := c.payments.ListByEmail(ctx, identity.Email)
	if err != nil {
		return nil, model.NewPersistenceError(fmt.Errorf("決済履歴の取得に失敗しました: %w", err))
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	return payments, nil
}

func (c *Coordinator) clearCart(ctx context.Context, p *model.Payment) (int64, error) {
	deleted, err := c.carts.DeleteByIDsForUser(ctx, p.Email, p.CartIDs)
	if err != nil {
		c.recordSettlement(metrics.SettlementCartNotCleared)
		slog.Error("決済記録後のカート削除に失敗しました",
			slog.String("payment_id", p.ID),
			slog.String("error", err.Error()),
		)
		return 0, &CartNotClearedError{PaymentID: p.ID, Err: err}
	}

	c.recordSettlement(metrics.SettlementCleared)
	if c.recorder != nil {
		c.recorder.RecordCartLinesCleared(deleted)
	}
	return deleted, nil
}

// newPayment は入力を検証して保存前の決済記録を組み立てる。
func (c *Coordinator) newPayment(in FinalizeInput) (*model.Payment, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, model.NewInvalidRequestError("email is required")
	}
	transactionID := strings.TrimSpace(in.TransactionID)
	if transactionID == "" {
		return nil, model.NewInvalidRequestError("transactionId is required")
	}
	if in.Amount <= 0 {
		return nil, model.NewInvalidPriceError()
	}
	for _, ids := range [][]string{in.CartIDs, in.MenuItemIDs} {
		for _, id := range ids {
			if _, err := uuid.Parse(id); err != nil {
				return nil, model.NewInvalidIDError(id)
			}
		}
	}

	now := c.now().UTC()
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = StatusSucceeded
	}

	return &model.Payment{
		ID:            uuid.NewString(),
		Email:         email,
		Amount:        in.Amount,
		Currency:      model.Currency,
		TransactionID: transactionID,
		CartIDs:       dedupe(in.CartIDs),
		MenuItemIDs:   in.MenuItemIDs,
		Status:        status,
		PaidAt:        paidAt.UTC(),
		CreatedAt:     now,
	}, nil
}

func (c *Coordinator) recordIntent(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordPaymentIntent(outcome)
	}
}

func (c *Coordinator) recordSettlement(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordSettlement(outcome)
	}
}

// dedupe は順序を保ったまま重複IDを取り除く。
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
