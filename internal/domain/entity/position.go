package entity

// AssetPosition is the per-asset view of an account, derived fresh on every
// refresh cycle. All balances are decimal quantities (raw / 10^decimals);
// they are display values, not settlement values.
type AssetPosition struct {
	Symbol          string  `json:"symbol"`
	WalletBalance   float64 `json:"walletBalance"`
	SuppliedBalance float64 `json:"suppliedBalance"`
	BorrowedBalance float64 `json:"borrowedBalance"`
	PriceUSD        float64 `json:"priceUSD"`
}

// WalletValueUSD returns the USD value of the wallet-held balance.
func (p AssetPosition) WalletValueUSD() float64 {
	return p.WalletBalance * p.PriceUSD
}

// SuppliedValueUSD returns the USD value of the supplied balance.
func (p AssetPosition) SuppliedValueUSD() float64 {
	return p.SuppliedBalance * p.PriceUSD
}

// BorrowedValueUSD returns the USD value of the borrowed balance.
func (p AssetPosition) BorrowedValueUSD() float64 {
	return p.BorrowedBalance * p.PriceUSD
}
