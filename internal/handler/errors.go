// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/foodcapital/internal/middleware"
	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/hitoshi/foodcapital/internal/payment"
	"github.com/hitoshi/foodcapital/internal/validation"
)

// maxBodyBytes はリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20

// cartNotClearedResponse は決済記録後にカート削除だけが失敗した場合のレスポンス。
// paymentIdを使ってPOST /payments/{id}/clear-cartで削除のみを再試行できる。
type cartNotClearedResponse struct {
	middleware.ErrorResponseBody
	PaymentID string `json:"paymentId"`
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var partial *payment.CartNotClearedError
	if errors.As(err, &partial) {
		writeJSON(w, http.StatusInternalServerError, cartNotClearedResponse{
			ErrorResponseBody: middleware.NewErrorResponseBody(model.NewCartNotClearedError(partial.Err)),
			PaymentID:         partial.PaymentID,
		})
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		if statusCode >= http.StatusInternalServerError {
			slog.Error("request failed",
				slog.String("path", r.URL.Path),
				slog.String("code", apiErr.Code),
				slog.Any("error", apiErr.Cause),
			)
		}
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeMenuItemNotFound,
		model.ErrCodeCartItemNotFound, model.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidPrice, model.ErrCodeInvalidID:
		return http.StatusBadRequest
	case model.ErrCodePaymentProvider:
		return http.StatusBadGateway
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをdstに読み込み、validがnilでなければ構造体を検証する。
// 失敗した場合はエラーレスポンスを書き込んでfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, valid *validation.Validator) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, model.ErrInvalidAmount) {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidPriceError())
			return false
		}
		reason := "malformed JSON body"
		if errors.Is(err, io.EOF) {
			reason = "empty body"
		}
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(reason))
		return false
	}

	if valid == nil {
		return true
	}
	if err := valid.Struct(dst); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(err.Error()))
		return false
	}
	return true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// messageResponse は削除などの確認メッセージのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}
