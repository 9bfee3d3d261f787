package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChainConfig holds the RPC endpoints and protocol contract addresses for
// the deployment the dashboard serves.
type ChainConfig struct {
	ChainID         int64    `yaml:"chainID"`
	PrimaryRPCURL   string   `yaml:"primaryRpcUrl"`
	FallbackRPCURLs []string `yaml:"fallbackRpcUrls"`
	// PoolAddress is the lending pool entry point.
	PoolAddress string `yaml:"poolAddress"`
	// NativeGatewayAddress is the wrapped-token gateway used for native
	// supply and withdrawal.
	NativeGatewayAddress string `yaml:"nativeGatewayAddress"`
	// DataProviderAddress serves the per-account reserve array query.
	DataProviderAddress string `yaml:"dataProviderAddress"`
	// SignerKeyEnv names the environment variable holding the submitter's
	// hex private key. The embedded wallet replaces this in production.
	SignerKeyEnv string `yaml:"signerKeyEnv"`
	// ReadRequestsPerSecond rate-limits chain reads; 0 disables the limiter.
	ReadRequestsPerSecond float64 `yaml:"readRequestsPerSecond"`
}

// RegistryConfig points at the static asset registry file.
type RegistryConfig struct {
	AssetFilePath string `yaml:"assetFilePath"`
}

// PriceConfig holds the price collaborator's settings. StaticPrices is the
// fallback table used when the live feed has no quote for a symbol.
type PriceConfig struct {
	DEXScreenerBaseURL       string             `yaml:"dexScreenerBaseURL"`
	DEXScreenerChainID       string             `yaml:"dexScreenerChainId"`
	RequestTimeoutMillis     int64              `yaml:"requestTimeoutMillis"`
	MaxTokensPerBatchRequest int                `yaml:"maxTokensPerBatchRequest"`
	CacheTTLMinutes          int                `yaml:"cacheTTLMinutes"`
	StaticPrices             map[string]float64 `yaml:"staticPrices"`
}

// OrchestratorConfig holds transaction-orchestration settings.
type OrchestratorConfig struct {
	// ApprovalSettleMillis is the delay applied after an approval confirms
	// before the dependent call is submitted. Some wallet backends report the
	// approval receipt before the new allowance is queryable.
	ApprovalSettleMillis int64  `yaml:"approvalSettleMillis"`
	ReferralCode         uint16 `yaml:"referralCode"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentRoutines int `yaml:"max_concurrent_routines"`
	RPCCallTimeoutSeconds int `yaml:"rpc_call_timeout_seconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	Chain        ChainConfig        `yaml:"chain"`
	Registry     RegistryConfig     `yaml:"registry"`
	Prices       PriceConfig        `yaml:"prices"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Performance  PerformanceConfig  `yaml:"performance"`
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and applies defaults for every optional field.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Registry.AssetFilePath == "" {
		cfg.Registry.AssetFilePath = "data/assets.json"
	}

	if cfg.Chain.PrimaryRPCURL == "" {
		return nil, fmt.Errorf("chain.primaryRpcUrl is required in %s", path)
	}
	if cfg.Chain.PoolAddress == "" {
		return nil, fmt.Errorf("chain.poolAddress is required in %s", path)
	}
	if cfg.Chain.SignerKeyEnv == "" {
		cfg.Chain.SignerKeyEnv = "LENDING_SIGNER_KEY"
	}

	if cfg.Prices.DEXScreenerBaseURL == "" {
		cfg.Prices.DEXScreenerBaseURL = "https://api.dexscreener.com"
	}
	if cfg.Prices.DEXScreenerChainID == "" {
		cfg.Prices.DEXScreenerChainID = "ethereum"
	}
	if cfg.Prices.RequestTimeoutMillis == 0 {
		cfg.Prices.RequestTimeoutMillis = 10000
	}
	if cfg.Prices.MaxTokensPerBatchRequest == 0 {
		cfg.Prices.MaxTokensPerBatchRequest = 30 // DEXScreener limit
	}
	if cfg.Prices.CacheTTLMinutes == 0 {
		cfg.Prices.CacheTTLMinutes = 60
	}

	if cfg.Orchestrator.ApprovalSettleMillis == 0 {
		cfg.Orchestrator.ApprovalSettleMillis = 2000
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
	}
	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 10
	}

	return &cfg, nil
}
