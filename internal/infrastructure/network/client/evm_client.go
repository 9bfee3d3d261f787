package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/domain/entity"
	"lending_dashboard/internal/infrastructure/configloader"
	"lending_dashboard/pkg/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"
)

const defaultConnectionTimeout = 10 * time.Second

// EVMClient implements port.ChainClient against an EVM JSON-RPC endpoint.
// All reads share one rate limiter so a refresh fan-out cannot hammer the
// provider past its quota.
type EVMClient struct {
	ethClient        *ethclient.Client
	poolAddr         common.Address
	dataProviderAddr common.Address
	rpcCallTimeout   time.Duration
	limiter          *rate.Limiter
	logger           port.Logger
}

// NewEVMClient dials the primary RPC URL, falling back through the
// configured alternates on connection failure.
func NewEVMClient(chainCfg configloader.ChainConfig, rpcCallTimeout time.Duration, logger port.Logger) (*EVMClient, error) {
	initParsedABIs()

	rpcURLs := append([]string{chainCfg.PrimaryRPCURL}, chainCfg.FallbackRPCURLs...)
	var lastErr error
	var ethClient *ethclient.Client

	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), defaultConnectionTimeout)
		c, err := ethclient.DialContext(ctx, rpcURL)
		cancel()
		if err == nil {
			ethClient = c
			logger.Info("Connected to RPC endpoint", "url", rpcURL)
			break
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
		logger.Warn("RPC connection attempt failed", "url", rpcURL, "error", err)
	}
	if ethClient == nil {
		return nil, fmt.Errorf("all RPC connection attempts failed: %w", lastErr)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if chainCfg.ReadRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(chainCfg.ReadRequestsPerSecond), 1)
	}

	return &EVMClient{
		ethClient:        ethClient,
		poolAddr:         common.HexToAddress(chainCfg.PoolAddress),
		dataProviderAddr: common.HexToAddress(chainCfg.DataProviderAddress),
		rpcCallTimeout:   rpcCallTimeout,
		limiter:          limiter,
		logger:           logger,
	}, nil
}

// EthClient exposes the underlying connection for collaborators that need
// direct access (the transaction submitter shares it).
func (c *EVMClient) EthClient() *ethclient.Client {
	return c.ethClient
}

// GetNativeBalance fetches the native currency balance for a wallet.
func (c *EVMClient) GetNativeBalance(ctx context.Context, walletAddress string) (*big.Int, error) {
	callCtx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	start := time.Now()
	balance, err := c.ethClient.BalanceAt(callCtx, common.HexToAddress(walletAddress), nil)
	metrics.ObserveChainRead("eth_getBalance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch native balance for %s: %w", walletAddress, err)
	}
	return balance, nil
}

// GetTokenBalance fetches the ERC20 balance of tokenAddress held by walletAddress.
func (c *EVMClient) GetTokenBalance(ctx context.Context, tokenAddress string, walletAddress string) (*big.Int, error) {
	out, err := c.viewCall(ctx, &parsedERC20ABI, common.HexToAddress(tokenAddress), "balanceOf",
		common.HexToAddress(walletAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token balance of %s for %s: %w", tokenAddress, walletAddress, err)
	}
	return unpackBigInt(out, "balanceOf")
}

// GetAllowance fetches the ERC20 allowance granted by owner to spender.
func (c *EVMClient) GetAllowance(ctx context.Context, tokenAddress string, owner string, spender string) (*big.Int, error) {
	out, err := c.viewCall(ctx, &parsedERC20ABI, common.HexToAddress(tokenAddress), "allowance",
		common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch allowance on %s from %s to %s: %w", tokenAddress, owner, spender, err)
	}
	return unpackBigInt(out, "allowance")
}

// GetAccountData fetches the pool's aggregate account tuple for a wallet.
func (c *EVMClient) GetAccountData(ctx context.Context, walletAddress string) (entity.AccountData, error) {
	out, err := c.viewCall(ctx, &parsedPoolABI, c.poolAddr, "getUserAccountData",
		common.HexToAddress(walletAddress))
	if err != nil {
		return entity.AccountData{}, fmt.Errorf("failed to fetch account data for %s: %w", walletAddress, err)
	}

	unpacked, err := parsedPoolABI.Unpack("getUserAccountData", out)
	if err != nil {
		return entity.AccountData{}, fmt.Errorf("failed to unpack getUserAccountData result: %w", err)
	}
	if len(unpacked) != 6 {
		return entity.AccountData{}, fmt.Errorf("getUserAccountData returned %d values, expected 6", len(unpacked))
	}

	values := make([]*big.Int, 6)
	for i, v := range unpacked {
		b, ok := v.(*big.Int)
		if !ok {
			return entity.AccountData{}, fmt.Errorf("getUserAccountData value %d is %T, expected *big.Int", i, v)
		}
		values[i] = b
	}
	return entity.AccountData{
		TotalCollateralBase:         values[0],
		TotalDebtBase:               values[1],
		AvailableBorrowsBase:        values[2],
		CurrentLiquidationThreshold: values[3],
		LTV:                         values[4],
		HealthFactor:                values[5],
	}, nil
}

// userReserveRaw matches the data provider's tuple layout for abi decoding.
type userReserveRaw struct {
	UnderlyingAsset common.Address
	SuppliedBalance *big.Int
	BorrowedBalance *big.Int
}

// GetUserReserves fetches the per-asset supplied/borrowed array for a wallet.
func (c *EVMClient) GetUserReserves(ctx context.Context, walletAddress string) ([]entity.UserReserve, error) {
	out, err := c.viewCall(ctx, &parsedDataProviderABI, c.dataProviderAddr, "getUserReservesData",
		common.HexToAddress(walletAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user reserves for %s: %w", walletAddress, err)
	}

	unpacked, err := parsedDataProviderABI.Unpack("getUserReservesData", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getUserReservesData result: %w", err)
	}
	if len(unpacked) == 0 {
		return []entity.UserReserve{}, nil
	}

	raw := *abi.ConvertType(unpacked[0], new([]userReserveRaw)).(*[]userReserveRaw)

	reserves := make([]entity.UserReserve, 0, len(raw))
	for _, r := range raw {
		reserves = append(reserves, entity.UserReserve{
			AssetAddress: r.UnderlyingAsset.Hex(),
			SuppliedRaw:  r.SuppliedBalance,
			BorrowedRaw:  r.BorrowedBalance,
		})
	}
	return reserves, nil
}

// viewCall packs and executes a read-only contract call.
func (c *EVMClient) viewCall(ctx context.Context, contractABI *abi.ABI, to common.Address, method string, args ...interface{}) ([]byte, error) {
	callData, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	callCtx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	start := time.Now()
	out, err := c.ethClient.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: callData}, nil)
	metrics.ObserveChainRead(method, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	return out, nil
}

// acquire waits on the rate limiter and derives the per-call timeout context.
func (c *EVMClient) acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	return callCtx, cancel, nil
}

func unpackBigInt(out []byte, method string) (*big.Int, error) {
	if len(out) == 0 {
		return big.NewInt(0), nil
	}
	unpacked, err := parsedERC20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("%s unpack returned no data", method)
	}
	value, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to assert unpacked %s result to *big.Int, got %T", method, unpacked[0])
	}
	return value, nil
}
