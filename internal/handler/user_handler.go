package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodcapital/internal/middleware"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/user"
	"github.com/hitoshi/foodcapital/internal/validation"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	SignUp(ctx context.Context, in user.SignUpInput) (*user.SignUpResult, error)
	List(ctx context.Context) ([]*model.User, error)
	Promote(ctx context.Context, id string) error
	IsAdmin(ctx context.Context, identity *model.Identity, email string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	valid   *validation.Validator
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, valid *validation.Validator) *UserHandler {
	return &UserHandler{
		service: service,
		valid:   valid,
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=200"`
	PhotoURL string `json:"photoURL" validate:"omitempty,url"`
}

type signUpResponse struct {
	Inserted   bool   `json:"inserted"`
	InsertedID string `json:"insertedId,omitempty"`
	Message    string `json:"message,omitempty"`
}

type adminStatusResponse struct {
	Admin bool `json:"admin"`
}

// SignUp はユーザーを登録する。登録済みのemailの場合は何もしない。
// POST /users
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req, h.valid) {
		return
	}

	res, err := h.service.SignUp(r.Context(), user.SignUpInput{
		Email:    req.Email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if !res.Inserted {
		writeJSON(w, http.StatusOK, signUpResponse{Inserted: false, Message: "user already exists"})
		return
	}
	writeJSON(w, http.StatusOK, signUpResponse{Inserted: true, InsertedID: res.InsertedID})
}

// List は全ユーザーを返す。
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Promote はユーザーを管理者に昇格させる。
// PATCH /users/admin/{id}
func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Promote(r.Context(), chi.URLParam(r, "subject")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "user promoted to admin"})
}

// AdminStatus は認証済みユーザー自身が管理者かどうかを返す。
// GET /users/admin/{email}
func (h *UserHandler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	admin, err := h.service.IsAdmin(r.Context(), identity, chi.URLParam(r, "subject"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminStatusResponse{Admin: admin})
}

// Delete はユーザーを削除する。
// DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "user deleted"})
}
