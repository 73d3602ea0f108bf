// Package model はドメインモデルを定義する。
package model

import "time"

// MenuItem はメニューの1品目を表す。
type MenuItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Recipe    string    `json:"recipe"`
	Image     string    `json:"image"`
	Category  string    `json:"category"`
	Price     Amount    `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Review は利用者のレビューを表す。
type Review struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Details   string    `json:"details"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}
