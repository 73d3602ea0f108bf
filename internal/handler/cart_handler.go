package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodcapital/internal/cart"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/validation"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	Add(ctx context.Context, in cart.AddInput) (*model.CartLine, error)
	List(ctx context.Context, email string) ([]*model.CartLine, error)
	Remove(ctx context.Context, id string) error
}

// CartHandler はカートのHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
	valid   *validation.Validator
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface, valid *validation.Validator) *CartHandler {
	return &CartHandler{
		service: service,
		valid:   valid,
	}
}

// addCartLineRequest はカート追加リクエストのボディ。
type addCartLineRequest struct {
	MenuItemID string       `json:"menuId" validate:"required,uuid"`
	UserEmail  string       `json:"userEmail" validate:"required,email"`
	Name       string       `json:"name" validate:"max=200"`
	Image      string       `json:"image" validate:"omitempty,url"`
	Price      model.Amount `json:"price" validate:"gte=0"`
	Quantity   int          `json:"quantity" validate:"gte=0,lte=99"`
}

// Add はカート行を作成する。
// POST /carts
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addCartLineRequest
	if !decodeJSON(w, r, &req, h.valid) {
		return
	}

	line, err := h.service.Add(r.Context(), cart.AddInput{
		MenuItemID: req.MenuItemID,
		UserEmail:  req.UserEmail,
		Name:       req.Name,
		Image:      req.Image,
		Price:      req.Price,
		Quantity:   req.Quantity,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

// List は所有者emailのカート行を返す。
// GET /carts?email=
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.List(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// Remove はカート行を削除する。
// DELETE /carts/{id}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "cart item deleted"})
}
