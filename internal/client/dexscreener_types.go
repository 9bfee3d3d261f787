package client

// PairData contains the fields of a DEX Screener trading pair the price
// service consumes. The full API response carries much more; only what is
// read is declared.
type PairData struct {
	ChainID     string   `json:"chainId"`
	PairAddress string   `json:"pairAddress"`
	BaseToken   DEXToken `json:"baseToken"`
	QuoteToken  DEXToken `json:"quoteToken"`
	PriceNative string   `json:"priceNative"`
	PriceUsd    string   `json:"priceUsd"`
}

// DEXToken represents a token in a trading pair.
type DEXToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// pairsWrapper handles the wrapped-object response shape some endpoints use.
type pairsWrapper struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []PairData `json:"pairs"`
}
