package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"lending_dashboard/internal/app/port"
	dex_client "lending_dashboard/internal/client"
	"lending_dashboard/internal/infrastructure/configloader"
	"lending_dashboard/internal/pkg/utils"

	"github.com/patrickmn/go-cache"
)

const (
	stablecoinUSDCSymbol = "USDC"
	stablecoinUSDTSymbol = "USDT"
	stablecoinDAISymbol  = "DAI"
)

var stablecoinSymbols = map[string]struct{}{
	stablecoinUSDCSymbol: {},
	stablecoinUSDTSymbol: {},
	stablecoinDAISymbol:  {},
}

// priceServiceImpl implements port.PriceService. Live quotes come from the
// DEX Screener client and sit in a TTL cache; the static table from config
// backs any symbol the live feed cannot quote. Stablecoins are pinned to 1.
type priceServiceImpl struct {
	registry          port.AssetRegistry
	dexscreenerClient dex_client.DEXScreenerClient
	logger            port.Logger
	cfg               *configloader.PriceConfig
	pricesCache       *cache.Cache // key: lowercase token address -> float64
}

// NewPriceService creates a new instance of priceServiceImpl.
func NewPriceService(
	registry port.AssetRegistry,
	dsc dex_client.DEXScreenerClient,
	l port.Logger,
	cfg *configloader.PriceConfig,
) port.PriceService {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	return &priceServiceImpl{
		registry:          registry,
		dexscreenerClient: dsc,
		logger:            l,
		cfg:               cfg,
		pricesCache:       cache.New(ttl, ttl/2),
	}
}

// LoadAndCachePrices fetches quotes for every registry asset in batches and
// caches them. A fully failed load is returned as an error so callers can
// decide whether to continue on the static table alone.
func (s *priceServiceImpl) LoadAndCachePrices(ctx context.Context) error {
	assets := s.registry.All()
	addresses := make([]string, 0, len(assets))
	for _, a := range assets {
		if _, pinned := stablecoinSymbols[a.Symbol]; pinned {
			continue
		}
		addresses = append(addresses, strings.ToLower(a.Address))
	}
	if len(addresses) == 0 {
		return nil
	}

	var lastErr error
	var cached int
	for _, batch := range utils.BatchStrings(addresses, s.cfg.MaxTokensPerBatchRequest) {
		reqCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.RequestTimeoutMillis)*time.Millisecond)
		pairs, err := s.dexscreenerClient.GetTokenPairsByAddresses(reqCtx, s.cfg.DEXScreenerChainID, batch)
		cancel()
		if err != nil {
			s.logger.Warn("Price batch fetch failed", "batch_size", len(batch), "error", err)
			lastErr = err
			continue
		}

		for _, pair := range pairs {
			price, parseErr := strconv.ParseFloat(pair.PriceUsd, 64)
			if parseErr != nil || price <= 0 {
				s.logger.Debug("Skipping pair with unusable priceUsd",
					"token", pair.BaseToken.Symbol, "priceUsd", pair.PriceUsd)
				continue
			}
			s.pricesCache.SetDefault(strings.ToLower(pair.BaseToken.Address), price)
			cached++
		}
	}

	s.logger.Info("Token prices loaded and cached", "cached_count", cached, "asset_count", len(addresses))
	if cached == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// PriceUSD returns the unit price for a symbol. Lookup order: stablecoin
// pin, live cache by token address, static table. A missing price is
// (0, false), never an error.
func (s *priceServiceImpl) PriceUSD(symbol string) (float64, bool) {
	if _, pinned := stablecoinSymbols[symbol]; pinned {
		return 1.0, true
	}

	if asset, ok := s.registry.Get(symbol); ok {
		if v, found := s.pricesCache.Get(strings.ToLower(asset.Address)); found {
			if price, isFloat := v.(float64); isFloat && price > 0 {
				return price, true
			}
		}
	}

	if price, ok := s.cfg.StaticPrices[symbol]; ok && price > 0 {
		return price, true
	}
	return 0, false
}
