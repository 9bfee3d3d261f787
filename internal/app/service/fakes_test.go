package service

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/domain/entity"
	"lending_dashboard/internal/infrastructure/registry"

	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

const (
	ethAddress      = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	ethSupplyToken  = "0x4d5F47FA6A74757f35C14fD3a6Ef8E3C9BC514E8"
	usdcAddress     = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	usdcSupplyToken = "0x98C23E9d8f34FEFb1B7BD6a91B7FF122F4e16F5c"
	wbtcAddress     = "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"
	wbtcSupplyToken = "0x5Ee5bf7ae06D1Be5997A1A72006Fe6C607eC6DE8"

	testAccount = "0x1111111111111111111111111111111111111111"
)

func testRegistry(t *testing.T) port.AssetRegistry {
	t.Helper()
	reg, err := registry.New([]entity.AssetConfig{
		{
			Symbol:             "ETH",
			Name:               "Ether",
			Address:            ethAddress,
			Decimals:           18,
			SupplyTokenAddress: ethSupplyToken,
			IsCollateral:       true,
			CanBorrow:          true,
			IsNative:           true,
		},
		{
			Symbol:             "USDC",
			Name:               "USD Coin",
			Address:            usdcAddress,
			Decimals:           6,
			SupplyTokenAddress: usdcSupplyToken,
			IsCollateral:       true,
			CanBorrow:          true,
		},
		{
			Symbol:             "WBTC",
			Name:               "Wrapped Bitcoin",
			Address:            wbtcAddress,
			Decimals:           8,
			SupplyTokenAddress: wbtcSupplyToken,
			IsCollateral:       true,
			CanBorrow:          false,
		},
	})
	require.NoError(t, err)
	return reg
}

// fakeChain implements port.ChainClient. Unset hooks return zero values, so
// tests only wire the reads they care about. Call recording is mutex-guarded
// because the position service fans out reads concurrently.
type fakeChain struct {
	mu    sync.Mutex
	calls []string

	nativeBalanceFn func(wallet string) (*big.Int, error)
	tokenBalanceFn  func(token, wallet string) (*big.Int, error)
	allowanceFn     func(token, owner, spender string) (*big.Int, error)
	accountDataFn   func(wallet string) (entity.AccountData, error)
	userReservesFn  func(wallet string) ([]entity.UserReserve, error)
}

func (c *fakeChain) record(call string) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

func (c *fakeChain) callCount(call string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, got := range c.calls {
		if got == call {
			n++
		}
	}
	return n
}

func (c *fakeChain) GetNativeBalance(_ context.Context, wallet string) (*big.Int, error) {
	c.record("GetNativeBalance")
	if c.nativeBalanceFn != nil {
		return c.nativeBalanceFn(wallet)
	}
	return big.NewInt(0), nil
}

func (c *fakeChain) GetTokenBalance(_ context.Context, token, wallet string) (*big.Int, error) {
	c.record("GetTokenBalance")
	if c.tokenBalanceFn != nil {
		return c.tokenBalanceFn(token, wallet)
	}
	return big.NewInt(0), nil
}

func (c *fakeChain) GetAllowance(_ context.Context, token, owner, spender string) (*big.Int, error) {
	c.record("GetAllowance")
	if c.allowanceFn != nil {
		return c.allowanceFn(token, owner, spender)
	}
	return big.NewInt(0), nil
}

func (c *fakeChain) GetAccountData(_ context.Context, wallet string) (entity.AccountData, error) {
	c.record("GetAccountData")
	if c.accountDataFn != nil {
		return c.accountDataFn(wallet)
	}
	return entity.AccountData{}, nil
}

func (c *fakeChain) GetUserReserves(_ context.Context, wallet string) ([]entity.UserReserve, error) {
	c.record("GetUserReserves")
	if c.userReservesFn != nil {
		return c.userReservesFn(wallet)
	}
	return nil, nil
}

// fakeGateway implements port.ProtocolGateway, recording every write call in
// order. A call listed in errs fails with that error instead of submitting.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{errs: make(map[string]error)}
}

func (g *fakeGateway) submit(call string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	err := g.errs[call]
	g.mu.Unlock()
	if err != nil {
		return "", err
	}
	return "0xhash_" + call, nil
}

func (g *fakeGateway) calledOps() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *fakeGateway) Supply(_ context.Context, _, _ string, _ *big.Int) (string, error) {
	return g.submit("Supply")
}

func (g *fakeGateway) SupplyNative(_ context.Context, _ string, _ *big.Int) (string, error) {
	return g.submit("SupplyNative")
}

func (g *fakeGateway) Borrow(_ context.Context, _, _ string, _ *big.Int) (string, error) {
	return g.submit("Borrow")
}

func (g *fakeGateway) Withdraw(_ context.Context, _, _ string, _ *big.Int) (string, error) {
	return g.submit("Withdraw")
}

func (g *fakeGateway) WithdrawNative(_ context.Context, _ string, _ *big.Int) (string, error) {
	return g.submit("WithdrawNative")
}

func (g *fakeGateway) Repay(_ context.Context, _, _ string, _ *big.Int) (string, error) {
	return g.submit("Repay")
}

func (g *fakeGateway) Approve(_ context.Context, _, _ string, _ *big.Int) (string, error) {
	return g.submit("Approve")
}

func (g *fakeGateway) PoolAddress() string {
	return "0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"
}

func (g *fakeGateway) NativeGatewayAddress() string {
	return "0xD322A49006FC828F9B5B37Ab215F99B4E5caB19C"
}

// fakePrices implements port.PriceService from a fixed symbol table.
type fakePrices struct {
	prices map[string]float64
}

func (f fakePrices) LoadAndCachePrices(context.Context) error { return nil }

func (f fakePrices) PriceUSD(symbol string) (float64, bool) {
	p, ok := f.prices[symbol]
	return p, ok
}
