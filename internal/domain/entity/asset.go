package entity

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// AssetConfig holds the static configuration for a single lendable asset.
// The registry owning these entries is immutable for the process lifetime;
// services reference entries, never copy-and-mutate them.
type AssetConfig struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Name   string `json:"name" yaml:"name"`
	// Address is the underlying token contract. For the native asset this is
	// the wrapped-token address the protocol tracks reserves under; wallet
	// balance reads use the native query path instead.
	Address  string `json:"address" yaml:"address"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
	// SupplyTokenAddress is the yield-bearing receipt token (aToken) whose
	// balance reflects the supplied principal plus accrued yield.
	SupplyTokenAddress string `json:"supplyTokenAddress" yaml:"supplyTokenAddress"`
	IsCollateral       bool   `json:"isCollateral" yaml:"isCollateral"`
	CanBorrow          bool   `json:"canBorrow" yaml:"canBorrow"`
	IsNative           bool   `json:"isNative" yaml:"isNative"`
}
