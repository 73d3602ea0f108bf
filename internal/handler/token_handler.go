package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/foodcapital/internal/middleware"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/token"
)

// TokenIssuer はトークンハンドラーが必要とする発行インターフェース。
type TokenIssuer interface {
	Issue(claim model.Claim) (string, error)
}

// TokenHandler はアクセストークン発行のHTTPハンドラー。
type TokenHandler struct {
	issuer TokenIssuer
}

// NewTokenHandler はTokenHandlerを生成する。
func NewTokenHandler(issuer TokenIssuer) *TokenHandler {
	return &TokenHandler{issuer: issuer}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Issue はリクエストボディのクレームを埋め込んだトークンを発行する。
// POST /jwt
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var claim model.Claim
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&claim); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("claim must be a JSON object"))
		return
	}

	signed, err := h.issuer.Issue(claim)
	if err != nil {
		if errors.Is(err, token.ErrMissingEmail) {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("email is required"))
			return
		}
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: signed})
}
