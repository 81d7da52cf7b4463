// Package model はドメインモデルを定義する。
package model

import "time"

// Product は販売商品を表す。
// Stockは常に0以上（在庫台帳の条件付きUPDATEで保証する）。
type Product struct {
	ID              string
	Name            string
	Description     string
	Price           float64
	Stock           int
	Rating          float64
	NumRatings      int
	Category        string
	RatingFetchedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
