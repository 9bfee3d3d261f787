package service

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/domain/entity"
	"lending_dashboard/internal/pkg/utils"
	"lending_dashboard/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// healthFactorNoDebtThreshold: the protocol reports an enormous sentinel
// health factor when the account has no debt. Any normalized value above
// this threshold is reported as 0, which callers render as infinite/safe.
const healthFactorNoDebtThreshold = 1e10

// baseCurrencyDecimals is the fixed-point scale of the protocol's
// base-currency figures and health factor.
const baseCurrencyDecimals = 18

// positionServiceImpl implements port.PositionService.
type positionServiceImpl struct {
	registry              port.AssetRegistry
	chain                 port.ChainClient
	priceSvc              port.PriceService
	logger                port.Logger
	maxConcurrentRoutines int
}

// NewPositionService creates a new instance of positionServiceImpl.
func NewPositionService(
	registry port.AssetRegistry,
	chain port.ChainClient,
	priceSvc port.PriceService,
	l port.Logger,
	maxRoutines int,
) port.PositionService {
	if maxRoutines <= 0 {
		maxRoutines = 1
	}
	return &positionServiceImpl{
		registry:              registry,
		chain:                 chain,
		priceSvc:              priceSvc,
		logger:                l,
		maxConcurrentRoutines: maxRoutines,
	}
}

// Refresh recomputes the account's full snapshot. Per-asset wallet-balance
// reads fan out concurrently alongside the two shared protocol queries, so
// total latency is bounded by the slowest single read. Every failure is
// isolated: the affected field degrades to zero and the rest of the
// snapshot stays valid.
func (s *positionServiceImpl) Refresh(ctx context.Context, account string) (entity.PortfolioSnapshot, error) {
	if account == "" {
		s.logger.Debug("Refresh requested with no connected account, returning empty snapshot")
		return entity.EmptySnapshot(), nil
	}

	metrics.CountRefresh()
	assets := s.registry.All()

	walletBalances := make(map[string]*big.Int, len(assets))
	var accountData entity.AccountData
	var reserves []entity.UserReserve
	var mu sync.Mutex

	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrentRoutines)

	for _, asset := range assets {
		a := asset
		eg.Go(func() error {
			var balance *big.Int
			var err error
			if a.IsNative {
				balance, err = s.chain.GetNativeBalance(childCtx, account)
			} else {
				balance, err = s.chain.GetTokenBalance(childCtx, a.Address, account)
			}
			if err != nil {
				s.logger.Warn("Wallet balance query failed, defaulting to zero",
					"account", account, "asset", a.Symbol, "error", err)
				return nil
			}
			mu.Lock()
			walletBalances[a.Symbol] = balance
			mu.Unlock()
			return nil
		})
	}

	eg.Go(func() error {
		data, err := s.chain.GetAccountData(childCtx, account)
		if err != nil {
			s.logger.Warn("Aggregate account query failed, health factor and max borrowable default to zero",
				"account", account, "error", err)
			return nil
		}
		mu.Lock()
		accountData = data
		mu.Unlock()
		return nil
	})

	eg.Go(func() error {
		res, err := s.chain.GetUserReserves(childCtx, account)
		if err != nil {
			s.logger.Warn("User reserves query failed, supplied/borrowed balances default to zero",
				"account", account, "error", err)
			return nil
		}
		mu.Lock()
		reserves = res
		mu.Unlock()
		return nil
	})

	// Goroutines swallow their own errors; Wait only reports context cancellation.
	if err := eg.Wait(); err != nil {
		return entity.EmptySnapshot(), err
	}
	if err := ctx.Err(); err != nil {
		return entity.EmptySnapshot(), err
	}

	snapshot := s.assemble(account, assets, walletBalances, accountData, reserves)
	s.logger.Debug("Portfolio snapshot recomputed",
		"account", account,
		"total_value_usd", snapshot.TotalValueUSD,
		"health_factor", snapshot.HealthFactor)
	return snapshot, nil
}

// assemble derives the per-asset positions and portfolio metrics from the
// raw query results. Pure computation; deterministic for identical inputs.
func (s *positionServiceImpl) assemble(
	account string,
	assets []entity.AssetConfig,
	walletBalances map[string]*big.Int,
	accountData entity.AccountData,
	reserves []entity.UserReserve,
) entity.PortfolioSnapshot {
	reservesByAddress := make(map[string]entity.UserReserve, len(reserves))
	for _, r := range reserves {
		reservesByAddress[strings.ToLower(r.AssetAddress)] = r
	}

	snapshot := entity.PortfolioSnapshot{
		Account:   account,
		Positions: make(map[string]entity.AssetPosition, len(assets)),
	}

	for _, asset := range assets {
		price, found := s.priceSvc.PriceUSD(asset.Symbol)
		if !found {
			s.logger.Warn("Price not found for asset, contributes zero to totals", "asset", asset.Symbol)
		}

		pos := entity.AssetPosition{
			Symbol:        asset.Symbol,
			WalletBalance: utils.ToDecimal(walletBalances[asset.Symbol], asset.Decimals),
			PriceUSD:      price,
		}
		if reserve, ok := reservesByAddress[strings.ToLower(asset.Address)]; ok {
			pos.SuppliedBalance = utils.ToDecimal(reserve.SuppliedRaw, asset.Decimals)
			pos.BorrowedBalance = utils.ToDecimal(reserve.BorrowedRaw, asset.Decimals)
		}

		snapshot.Positions[asset.Symbol] = pos
		snapshot.TotalValueUSD += pos.WalletValueUSD() + pos.SuppliedValueUSD()
		snapshot.TotalSuppliedUSD += pos.SuppliedValueUSD()
		snapshot.TotalBorrowedUSD += pos.BorrowedValueUSD()
	}

	snapshot.MaxBorrowableUSD = utils.FloorToWholeUnit(accountData.AvailableBorrowsBase, baseCurrencyDecimals)

	hf := utils.ToDecimal(accountData.HealthFactor, baseCurrencyDecimals)
	if hf > healthFactorNoDebtThreshold {
		hf = 0
	}
	snapshot.HealthFactor = hf

	return snapshot
}
