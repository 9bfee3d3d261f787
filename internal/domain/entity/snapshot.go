package entity

// PortfolioSnapshot aggregates an account's positions into portfolio-level
// metrics. A snapshot is recomputed wholesale on every refresh; it is never
// patched in place.
type PortfolioSnapshot struct {
	Account string `json:"account"`
	// Positions is keyed by asset symbol.
	Positions        map[string]AssetPosition `json:"positions"`
	TotalValueUSD    float64                  `json:"totalValueUSD"`
	TotalSuppliedUSD float64                  `json:"totalSuppliedUSD"`
	TotalBorrowedUSD float64                  `json:"totalBorrowedUSD"`
	// MaxBorrowableUSD is the protocol-reported available borrowing power,
	// floored to a whole reference-currency unit so the displayed figure can
	// never round up past the true on-chain entitlement.
	MaxBorrowableUSD float64 `json:"maxBorrowableUSD"`
	// HealthFactor is 0 when the account has no debt (callers render this as
	// infinite/safe), otherwise a finite positive ratio where values below
	// 1.0 risk liquidation.
	HealthFactor float64 `json:"healthFactor"`
}

// EmptySnapshot returns the zero-valued snapshot used when no account is
// connected.
func EmptySnapshot() PortfolioSnapshot {
	return PortfolioSnapshot{Positions: make(map[string]AssetPosition)}
}
