package port

import (
	"context"
	"math/big"

	"lending_dashboard/internal/domain/entity"
)

// ChainClient defines the read surface of the blockchain provider consumed
// by the position aggregator and the transaction orchestrator. Every method
// is a suspension point; implementations must honor the context.
type ChainClient interface {
	// GetNativeBalance fetches the native currency balance for a wallet.
	GetNativeBalance(ctx context.Context, walletAddress string) (*big.Int, error)

	// GetTokenBalance fetches the ERC20 balance of tokenAddress held by walletAddress.
	GetTokenBalance(ctx context.Context, tokenAddress string, walletAddress string) (*big.Int, error)

	// GetAllowance fetches the ERC20 allowance granted by owner to spender on tokenAddress.
	GetAllowance(ctx context.Context, tokenAddress string, owner string, spender string) (*big.Int, error)

	// GetAccountData fetches the protocol's aggregate account tuple
	// (collateral, debt, available borrows, liquidation threshold, health factor).
	GetAccountData(ctx context.Context, walletAddress string) (entity.AccountData, error)

	// GetUserReserves fetches the per-asset supplied/borrowed amounts for the
	// account. Entries are matched to the asset registry by contract address,
	// case-insensitively.
	GetUserReserves(ctx context.Context, walletAddress string) ([]entity.UserReserve, error)
}

// TransactionSubmitter broadcasts a prepared contract call and resolves to a
// transaction hash or an error. Production deployments back this with the
// embedded-wallet provider; this repository ships a local-key signer.
type TransactionSubmitter interface {
	Submit(ctx context.Context, contractAddress string, calldata []byte, nativeValue *big.Int) (string, error)
}

// ProtocolGateway exposes the protocol's write entry points as pre-encoded
// contract calls routed through a TransactionSubmitter.
type ProtocolGateway interface {
	// Supply deposits an ERC20 asset into the pool.
	Supply(ctx context.Context, account string, assetAddress string, rawAmount *big.Int) (string, error)

	// SupplyNative deposits the native asset through the wrapped-token
	// gateway with the raw amount attached as value.
	SupplyNative(ctx context.Context, account string, rawAmount *big.Int) (string, error)

	// Borrow draws a variable-rate loan from the pool.
	Borrow(ctx context.Context, account string, assetAddress string, rawAmount *big.Int) (string, error)

	// Withdraw redeems an ERC20 asset directly from the pool.
	Withdraw(ctx context.Context, account string, assetAddress string, rawAmount *big.Int) (string, error)

	// WithdrawNative redeems the native asset through the wrapped-token
	// gateway. The supply-tracking token must have granted the gateway an
	// allowance beforehand.
	WithdrawNative(ctx context.Context, account string, rawAmount *big.Int) (string, error)

	// Repay settles variable-rate debt on the pool.
	Repay(ctx context.Context, account string, assetAddress string, rawAmount *big.Int) (string, error)

	// Approve grants spender an ERC20 allowance of exactly rawAmount.
	Approve(ctx context.Context, tokenAddress string, spender string, rawAmount *big.Int) (string, error)

	// PoolAddress returns the pool contract address (the spender for ERC20
	// supply and repay allowances).
	PoolAddress() string

	// NativeGatewayAddress returns the wrapped-token gateway address (the
	// spender for native-withdrawal allowances).
	NativeGatewayAddress() string
}
