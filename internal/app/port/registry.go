package port

import "lending_dashboard/internal/domain/entity"

// AssetRegistry provides the static asset configuration shared by both core
// services. Implementations are immutable after construction.
type AssetRegistry interface {
	// Get returns the asset config for a symbol and true if it exists.
	Get(symbol string) (entity.AssetConfig, bool)

	// All returns every configured asset.
	All() []entity.AssetConfig

	// Native returns the designated native asset and true if one is configured.
	Native() (entity.AssetConfig, bool)
}
