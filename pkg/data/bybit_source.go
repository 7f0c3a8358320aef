package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

const bybitMaxLimit = 1000

// intervalCodes maps common interval names to Bybit API codes.
var intervalCodes = map[string]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
	"1d": "D", "1w": "W", "1M": "M",
}

// BybitSource fetches historical klines from the Bybit public API.
type BybitSource struct {
	client   *bybit_api.Client
	category string
}

// NewBybitSource creates a source for the given market category
// ("spot", "linear", "inverse"). Public kline endpoints need no credentials.
func NewBybitSource(category string, testnet bool) *BybitSource {
	baseURL := bybit_api.MAINNET
	if testnet {
		baseURL = bybit_api.TESTNET
	}
	if category == "" {
		category = "spot"
	}
	return &BybitSource{
		client:   bybit_api.NewBybitHttpClient("", "", bybit_api.WithBaseURL(baseURL)),
		category: category,
	}
}

func (s *BybitSource) Name() string { return "bybit" }

// GetBars pages backwards through the kline endpoint until the window is
// covered, then returns the bars ascending.
func (s *BybitSource) GetBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]market.Bar, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		code = interval // Allow raw API codes like "60" or "D".
	}
	if end.IsZero() {
		end = time.Now()
	}

	var bars []market.Bar
	cursor := end
	for {
		page, err := s.fetchPage(ctx, symbol, code, start, cursor)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		bars = append(bars, page...)

		oldest := page[len(page)-1].Timestamp
		if !start.IsZero() && !oldest.After(start) {
			break
		}
		if len(page) < bybitMaxLimit {
			break
		}
		cursor = oldest.Add(-time.Millisecond)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	bars = market.FilterRange(bars, start, end)
	if len(bars) == 0 {
		return nil, noDataErr(s.Name(), symbol, start, end)
	}
	return bars, nil
}

// fetchPage requests one kline page; Bybit returns rows newest-first.
func (s *BybitSource) fetchPage(ctx context.Context, symbol, code string, start, end time.Time) ([]market.Bar, error) {
	params := map[string]interface{}{
		"category": s.category,
		"symbol":   symbol,
		"interval": code,
		"limit":    bybitMaxLimit,
		"end":      end.UnixMilli(),
	}
	if !start.IsZero() {
		params["start"] = start.UnixMilli()
	}

	result, err := s.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("bybit: get klines for %s: %w", symbol, err)
	}
	return parseKlineResponse(result)
}

func parseKlineResponse(response interface{}) ([]market.Bar, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("bybit: unexpected response type %T", response)
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("bybit: API error %d: %s", serverResp.RetCode, serverResp.RetMsg)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("bybit: marshal result: %w", err)
	}

	var klineResult struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("bybit: unmarshal kline result: %w", err)
	}

	var bars []market.Bar
	for _, item := range klineResult.List {
		// Row format: [startTime, open, high, low, close, volume, turnover].
		if len(item) < 6 {
			continue
		}
		ms, err := strconv.ParseInt(item[0], 10, 64)
		if err != nil {
			continue
		}
		bars = append(bars, market.Bar{
			Timestamp: time.UnixMilli(ms).UTC(),
			Open:      parseFloat(item[1]),
			High:      parseFloat(item[2]),
			Low:       parseFloat(item[3]),
			Close:     parseFloat(item[4]),
			Volume:    parseFloat(item[5]),
		})
	}
	return bars, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
