package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/foodcapital/internal/model"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// stripeTimeout はStripe APIへの1リクエストあたりのタイムアウト。
const stripeTimeout = 15 * time.Second

// StripeProvider はStripe PaymentIntents APIを使うProvider実装。
type StripeProvider struct {
	api *client.API
}

// StripeConfig はStripeProviderの設定。
type StripeConfig struct {
	SecretKey string
	// APIURL はStripe APIのベースURL。空の場合は本番のAPIを使う。
	APIURL string
	// HTTPClient は省略時にstripeTimeout付きのクライアントを使う。
	HTTPClient *http.Client
}

// NewStripeProvider はStripeProviderを生成する。
// ネットワークエラー時の自動リトライは無効にする。
func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: stripeTimeout}
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     &stripeLogger{logger: slog.Default()},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)
	api := client.New(cfg.SecretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
	return &StripeProvider{api: api}
}

// CreateIntent はStripeにペイメントインテントを作成する。
func (p *StripeProvider) CreateIntent(ctx context.Context, amount model.Amount, currency string) (*model.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount.Minor()),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			slog.Warn("stripe rejected payment intent",
				slog.Int64("amount", amount.Minor()),
				slog.String("type", string(stripeErr.Type)),
				slog.String("code", string(stripeErr.Code)),
				slog.Int("http_status", stripeErr.HTTPStatusCode),
			)
		}
		return nil, fmt.Errorf("ペイメントインテントの作成に失敗しました: %w", err)
	}

	return &model.PaymentIntent{
		ID:           pi.ID,
		Amount:       model.Amount(pi.Amount),
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}, nil
}

// stripeLogger はstripe-goのログをslogに流す。
type stripeLogger struct {
	logger *slog.Logger
}

func (l *stripeLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *stripeLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *stripeLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *stripeLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}
