package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodcapital/internal/menu"
	"github.com/hitoshi/foodcapital/internal/middleware"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/validation"
)

// MenuServiceInterface はメニューハンドラーが必要とするサービスインターフェース。
type MenuServiceInterface interface {
	List(ctx context.Context) ([]*model.MenuItem, error)
	Get(ctx context.Context, id string) (*model.MenuItem, error)
	Create(ctx context.Context, in menu.ItemInput) (*model.MenuItem, error)
	Put(ctx context.Context, id string, in menu.ItemInput) (*model.MenuItem, bool, error)
	Delete(ctx context.Context, id string) error
	ListReviews(ctx context.Context) ([]*model.Review, error)
	CreateReview(ctx context.Context, identity *model.Identity, in menu.ReviewInput) (*model.Review, error)
}

// MenuHandler はメニューとレビューのHTTPハンドラー。
type MenuHandler struct {
	service MenuServiceInterface
	valid   *validation.Validator
}

// NewMenuHandler はMenuHandlerを生成する。
func NewMenuHandler(service MenuServiceInterface, valid *validation.Validator) *MenuHandler {
	return &MenuHandler{
		service: service,
		valid:   valid,
	}
}

// menuItemRequest はメニュー品目の作成・更新リクエストのボディ。
type menuItemRequest struct {
	Name     string       `json:"name" validate:"required,max=200"`
	Recipe   string       `json:"recipe" validate:"max=5000"`
	Image    string       `json:"image" validate:"omitempty,url"`
	Category string       `json:"category" validate:"max=100"`
	Price    model.Amount `json:"price" validate:"gt=0"`
}

func (req menuItemRequest) input() menu.ItemInput {
	return menu.ItemInput{
		Name:     req.Name,
		Recipe:   req.Recipe,
		Image:    req.Image,
		Category: req.Category,
		Price:    req.Price,
	}
}

// reviewRequest はレビュー投稿リクエストのボディ。
type reviewRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Details string `json:"details" validate:"required,max=5000"`
	Rating  int    `json:"rating" validate:"gte=0,lte=5"`
}

type putMenuItemResponse struct {
	Item    *model.MenuItem `json:"item"`
	Created bool            `json:"upserted"`
}

// List は全メニュー品目を返す。
// GET /menu
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get はメニュー品目を1件返す。
// GET /menu/{id}
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create はメニュー品目を作成する。
// POST /menu
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeJSON(w, r, &req, h.valid) {
		return
	}

	item, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Put はメニュー品目を更新し、存在しなければ作成する。
// PUT /menu/{id}
func (h *MenuHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeJSON(w, r, &req, h.valid) {
		return
	}

	item, created, err := h.service.Put(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, putMenuItemResponse{Item: item, Created: created})
}

// Delete はメニュー品目を削除する。
// DELETE /menu/{id}
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "menu item deleted"})
}

// ListReviews は全レビューを返す。
// GET /reviews
func (h *MenuHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// CreateReview は認証済みユーザーのレビューを作成する。
// POST /reviews
func (h *MenuHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req reviewRequest
	if !decodeJSON(w, r, &req, h.valid) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), identity, menu.ReviewInput{
		Name:    req.Name,
		Details: req.Details,
		Rating:  req.Rating,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}
