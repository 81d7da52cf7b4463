// Package rating は外部の商品評価APIとの連携機能を提供する。
// 評価情報の検索クライアントと定期再取得のバッチジョブを含む。
package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// defaultEndpoint は評価検索APIのエンドポイント。
const defaultEndpoint = "https://real-time-amazon-data.p.rapidapi.com/search"

// Client は商品評価検索APIのクライアント。
// 商品名で検索し、最上位ヒットの評価と評価数を返す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	apiHost    string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey, apiHost string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		apiHost:    apiHost,
		endpoint:   defaultEndpoint,
	}
}

// searchResponse は検索APIレスポンスのうち使用するフィールドのみを表す。
// product_star_ratingは"4.5"のような文字列で返る。
type searchResponse struct {
	Data struct {
		Products []struct {
			ProductStarRating string `json:"product_star_rating"`
			ProductNumRatings int    `json:"product_num_ratings"`
		} `json:"products"`
	} `json:"data"`
}

// FetchRating は商品名で評価情報を検索する。
// 検索結果が空の場合は(0, 0, nil)を返す（評価なしとして扱う）。
// API呼び出し自体の失敗はエラーを返す（呼び出し元が中立値の採用や
// 前回値維持を判断する）。
func (c *Client) FetchRating(ctx context.Context, query string) (float64, int, error) {
	if query == "" {
		return 0, 0, fmt.Errorf("検索クエリが空です")
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return 0, 0, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("country", "US")
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("評価検索APIの呼び出しに失敗しました",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("評価検索APIがエラーステータスを返しました",
			slog.String("query", query),
			slog.Int("http_status", resp.StatusCode),
		)
		return 0, 0, fmt.Errorf("評価検索APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("評価検索APIのレスポンスのパースに失敗しました",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return 0, 0, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	// 検索結果なしは評価なしとして扱う
	if len(result.Data.Products) == 0 {
		return 0, 0, nil
	}

	top := result.Data.Products[0]
	if top.ProductStarRating == "" {
		return 0, top.ProductNumRatings, nil
	}
	stars, err := strconv.ParseFloat(top.ProductStarRating, 64)
	if err != nil {
		c.logger.Warn("評価値のパースに失敗したため0として扱います",
			slog.String("query", query),
			slog.String("product_star_rating", top.ProductStarRating),
		)
		return 0, top.ProductNumRatings, nil
	}

	return stars, top.ProductNumRatings, nil
}
