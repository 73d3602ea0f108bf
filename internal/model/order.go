// Package model はドメインモデルを定義する。
package model

import "time"

// CartLine はカートの1行を表す。所有者のemailでスコープされる。
type CartLine struct {
	ID         string    `json:"id"`
	MenuItemID string    `json:"menuId"`
	UserEmail  string    `json:"userEmail"`
	Name       string    `json:"name"`
	Image      string    `json:"image"`
	Price      Amount    `json:"price"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Currency は決済通貨。固定値。
const Currency = "usd"

// Payment は完了した決済の記録。
// 決済確定1回につき1件だけ作成され、以後更新・削除されない。
type Payment struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Amount        Amount    `json:"price"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transactionId"`
	CartIDs       []string  `json:"cartIds"`
	MenuItemIDs   []string  `json:"menuItemIds"`
	Status        string    `json:"status"`
	PaidAt        time.Time `json:"date"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PaymentIntent は決済プロバイダー側で作成されたステージング済みの請求。
// ClientSecretはクライアントが決済を完了させるために使う。
type PaymentIntent struct {
	ID           string
	Amount       Amount
	Currency     string
	ClientSecret string
}
