package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodcapital/internal/middleware"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/payment"
)

// PaymentServiceInterface は決済ハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	CreateIntent(ctx context.Context, price model.Amount) (*model.PaymentIntent, error)
	Finalize(ctx context.Context, in payment.FinalizeInput) (*payment.FinalizeResult, error)
	RetryCartClear(ctx context.Context, identity *model.Identity, paymentID string) (*payment.FinalizeResult, error)
	History(ctx context.Context, identity *model.Identity) ([]*model.Payment, error)
}

// PaymentHandler は決済のHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type createIntentRequest struct {
	Price model.Amount `json:"price"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// paymentRequest は決済確定リクエストのボディ。
// cardIdsは旧クライアントが送るcartIdsの別名。
type paymentRequest struct {
	Email         string       `json:"email"`
	Price         model.Amount `json:"price"`
	TransactionID string       `json:"transactionId"`
	CartIDs       []string     `json:"cartIds"`
	CardIDs       []string     `json:"cardIds"`
	MenuItemIDs   []string     `json:"menuItemIds"`
	Status        string       `json:"status"`
	Date          *time.Time   `json:"date"`
}

type insertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
	Duplicate    bool   `json:"duplicate"`
}

type deleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

type paymentResponse struct {
	PaymentResult insertResult `json:"paymentResult"`
	DeleteResult  deleteResult `json:"deleteResult"`
}

func newPaymentResponse(res *payment.FinalizeResult) paymentResponse {
	return paymentResponse{
		PaymentResult: insertResult{
			Acknowledged: true,
			InsertedID:   res.Payment.ID,
			Duplicate:    res.Duplicate,
		},
		DeleteResult: deleteResult{DeletedCount: res.DeletedCount},
	}
}

// CreateIntent はペイメントインテントを作成し、クライアントシークレットを返す。
// POST /create-payment-intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if !decodeJSON(w, r, &req, nil) {
		return
	}

	intent, err := h.service.CreateIntent(r.Context(), req.Price)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createIntentResponse{ClientSecret: intent.ClientSecret})
}

// Finalize は決済記録を保存し、支払済みのカート行を削除する。
// POST /payments
func (h *PaymentHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeJSON(w, r, &req, nil) {
		return
	}

	cartIDs := req.CartIDs
	if cartIDs == nil {
		cartIDs = req.CardIDs
	}
	in := payment.FinalizeInput{
		Email:         req.Email,
		Amount:        req.Price,
		TransactionID: req.TransactionID,
		CartIDs:       cartIDs,
		MenuItemIDs:   req.MenuItemIDs,
		Status:        req.Status,
	}
	if req.Date != nil {
		in.PaidAt = *req.Date
	}

	res, err := h.service.Finalize(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentResponse(res))
}

// RetryCartClear は記録済み決済のカート削除のみを再実行する。
// POST /payments/{id}/clear-cart
func (h *PaymentHandler) RetryCartClear(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	res, err := h.service.RetryCartClear(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResult{DeletedCount: res.DeletedCount})
}

// History は認証済みユーザー自身の決済履歴を返す。
// GET /payments
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	payments, err := h.service.History(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
