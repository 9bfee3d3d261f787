package port

import "context"

// PriceService quotes assets in the reference currency (USD). A missing
// price is reported via the bool, never as an error; callers treat it as
// zero so the asset contributes nothing to totals.
type PriceService interface {
	// LoadAndCachePrices warms the price cache for every registry asset.
	LoadAndCachePrices(ctx context.Context) error

	// PriceUSD returns the cached unit price for a symbol.
	PriceUSD(symbol string) (float64, bool)
}
