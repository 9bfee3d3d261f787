package entity

import "math/big"

// AccountData mirrors the protocol pool's aggregate account query
// (getUserAccountData). Base-currency figures and the health factor are
// fixed-point integers scaled by 10^18.
type AccountData struct {
	TotalCollateralBase         *big.Int
	TotalDebtBase               *big.Int
	AvailableBorrowsBase        *big.Int
	CurrentLiquidationThreshold *big.Int
	LTV                         *big.Int
	HealthFactor                *big.Int
}

// UserReserve is one element of the protocol's per-account reserve query.
// Amounts are raw integer token quantities for the reserve's own decimals.
type UserReserve struct {
	AssetAddress string
	SuppliedRaw  *big.Int
	BorrowedRaw  *big.Int
}
