package model

import "github.com/shopspring/decimal"

// Money columns are decimal(12,2). API payloads carry them as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
