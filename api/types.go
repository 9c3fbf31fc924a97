// Package api - API types for the quote surface
// These types define the contract for the /v1 endpoints.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"esim-pricing/core/discount"
	"esim-pricing/core/engine"
	"esim-pricing/core/types"
	perrors "esim-pricing/internal/errors"
)

// RawPercent is an operator-entered percentage. JSON numbers and strings
// ("15", "15%", "") are both accepted; parsing happens in discount.FromRaw.
type RawPercent string

// UnmarshalJSON accepts a number or a string
func (p *RawPercent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = RawPercent(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("percentage must be a number or string: %w", err)
	}
	*p = RawPercent(n.String())
	return nil
}

// DiscountInput is a discount configuration as entered by an operator
type DiscountInput struct {
	Global     map[string]RawPercent `json:"global"`
	Individual map[string]RawPercent `json:"individual"`
}

// Config validates and normalizes the input
func (in *DiscountInput) Config() (*discount.Config, error) {
	if in == nil {
		return discount.Empty(), nil
	}
	return discount.FromRaw(raw(in.Global), raw(in.Individual))
}

func raw(m map[string]RawPercent) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = string(v)
	}
	return out
}

// QuoteRequest is the input to POST /v1/quotes
type QuoteRequest struct {
	// Plans in catalog order
	Plans []types.Plan `json:"plans"`

	// Discounts is optional; nil means no discounts
	Discounts *DiscountInput `json:"discounts,omitempty"`

	// Rates are units of each currency per 1 USD
	Rates map[string]decimal.Decimal `json:"rates,omitempty"`

	Currency     string `json:"currency,omitempty"`
	SelectedDays int    `json:"selected_days,omitempty"`

	// Sort orders quotes by price, size or duration; empty keeps catalog order
	Sort string `json:"sort,omitempty"`
	Desc bool   `json:"desc,omitempty"`
}

// RateTable converts the wire rates. Negative rates are rejected.
func (r *QuoteRequest) RateTable() (types.RateTable, error) {
	table := make(types.RateTable, len(r.Rates))
	for code, rate := range r.Rates {
		if rate.IsNegative() {
			return nil, perrors.Inputf("rate for %s is negative: %s", code, rate).WithContext("currency", code)
		}
		table[types.Currency(code).Normalize()] = rate
	}
	return table, nil
}

// QuoteResponse is the output of POST /v1/quotes
type QuoteResponse struct {
	*engine.Result

	// Groups holds the same quotes grouped by display size
	Groups []engine.SizeGroup `json:"groups"`
}

// DiscountValidation is the output of POST /v1/discounts/validate
type DiscountValidation struct {
	Config     *discount.Config `json:"config"`
	ConfigHash string           `json:"config_hash"`
	Entries    int              `json:"entries"`
}

// ErrorBody is the error envelope for every endpoint
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}
