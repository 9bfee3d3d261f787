package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/domain/entity"
)

// assetRegistry implements port.AssetRegistry from a JSON asset file loaded
// once at startup. The registry is immutable afterwards.
type assetRegistry struct {
	assets   []entity.AssetConfig
	bySymbol map[string]entity.AssetConfig
	native   *entity.AssetConfig
}

// LoadFromFile reads and validates the asset registry JSON file.
func LoadFromFile(path string, logger port.Logger) (port.AssetRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset file %s: %w", path, err)
	}

	var assets []entity.AssetConfig
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset file %s: %w", path, err)
	}

	reg, err := New(assets)
	if err != nil {
		return nil, fmt.Errorf("invalid asset registry in %s: %w", path, err)
	}
	logger.Info("Asset registry loaded", "path", path, "asset_count", len(assets))
	return reg, nil
}

// New builds a registry from the given asset configs, validating each entry.
func New(assets []entity.AssetConfig) (port.AssetRegistry, error) {
	reg := &assetRegistry{
		assets:   make([]entity.AssetConfig, 0, len(assets)),
		bySymbol: make(map[string]entity.AssetConfig, len(assets)),
	}

	for i, a := range assets {
		if a.Symbol == "" {
			return nil, fmt.Errorf("asset %d has an empty symbol", i)
		}
		if _, dup := reg.bySymbol[a.Symbol]; dup {
			return nil, fmt.Errorf("duplicate asset symbol %q", a.Symbol)
		}
		if !isHexAddress(a.Address) {
			return nil, fmt.Errorf("asset %s has invalid contract address %q", a.Symbol, a.Address)
		}
		if !isHexAddress(a.SupplyTokenAddress) {
			return nil, fmt.Errorf("asset %s has invalid supply-token address %q", a.Symbol, a.SupplyTokenAddress)
		}
		if a.Decimals == 0 {
			return nil, fmt.Errorf("asset %s has zero decimals", a.Symbol)
		}
		if a.IsNative {
			if reg.native != nil {
				return nil, fmt.Errorf("multiple native assets configured (%s and %s)", reg.native.Symbol, a.Symbol)
			}
			native := a
			reg.native = &native
		}
		reg.assets = append(reg.assets, a)
		reg.bySymbol[a.Symbol] = a
	}

	if len(reg.assets) == 0 {
		return nil, fmt.Errorf("asset registry is empty")
	}
	return reg, nil
}

func isHexAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && len(s) == 42
}

func (r *assetRegistry) Get(symbol string) (entity.AssetConfig, bool) {
	a, ok := r.bySymbol[symbol]
	return a, ok
}

func (r *assetRegistry) All() []entity.AssetConfig {
	out := make([]entity.AssetConfig, len(r.assets))
	copy(out, r.assets)
	return out
}

func (r *assetRegistry) Native() (entity.AssetConfig, bool) {
	if r.native == nil {
		return entity.AssetConfig{}, false
	}
	return *r.native, true
}
