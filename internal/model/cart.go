// Package model はドメインモデルを定義する。
package model

import "time"

// Cart はユーザーのカートを表す。
// ユーザーは過去のカートを複数持ち得るが、Current=trueのカートは
// 常に高々1つ（部分ユニークインデックスで保証する）。
type Cart struct {
	ID        string
	UserID    string
	Current   bool
	CreatedAt time.Time
}

// CartItemInput はカート保存・チェックアウト要求の1明細を表す。
type CartItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartLine はカート明細に商品の表示情報をJOINした行を表す。
type CartLine struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Title     string  `json:"title"`
}
