package market

import (
	"strings"
	"time"
)

// Instrument is one entry in the fixed tradable universe
type Instrument struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Universe is the fixed set of tradable instruments for the competition
var Universe = []Instrument{
	{Symbol: "AAPL", Name: "Apple Inc."},
	{Symbol: "MSFT", Name: "Microsoft Corporation"},
	{Symbol: "GOOGL", Name: "Alphabet Inc."},
	{Symbol: "AMZN", Name: "Amazon.com Inc."},
	{Symbol: "TSLA", Name: "Tesla Inc."},
	{Symbol: "META", Name: "Meta Platforms Inc."},
	{Symbol: "NVDA", Name: "NVIDIA Corporation"},
	{Symbol: "NFLX", Name: "Netflix Inc."},
	{Symbol: "AMD", Name: "Advanced Micro Devices"},
	{Symbol: "INTC", Name: "Intel Corporation"},
	{Symbol: "COIN", Name: "Coinbase Global Inc."},
	{Symbol: "PLTR", Name: "Palantir Technologies"},
	{Symbol: "SNOW", Name: "Snowflake Inc."},
	{Symbol: "CRM", Name: "Salesforce Inc."},
	{Symbol: "UBER", Name: "Uber Technologies Inc."},
	{Symbol: "ABNB", Name: "Airbnb Inc."},
	{Symbol: "ROKU", Name: "Roku Inc."},
	{Symbol: "SQ", Name: "Block Inc."},
	{Symbol: "ZM", Name: "Zoom Video Communications"},
	{Symbol: "SHOP", Name: "Shopify Inc."},
}

// IsTradable reports whether the symbol is part of the universe
func IsTradable(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, inst := range Universe {
		if inst.Symbol == symbol {
			return true
		}
	}
	return false
}

// Quote is the price served to the trade engine and the API
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at"`
	Stale         bool      `json:"stale,omitempty"`
}

// CachedQuote is one stock_cache row
type CachedQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProviderQuote is the raw result from the external quote provider
type ProviderQuote struct {
	Price  float64
	Open   float64
	Volume int64
}

// InstrumentQuote is an instrument with its latest cached price, if any
type InstrumentQuote struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Price         *float64 `json:"price,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
}
