package repo

import (
	"time"
)

const (
	MainnetName = "mainnet"
	DevnetName  = "devnet"
)

var NetConfigBuilderMap map[string]func() *Config

func init() {
	NetConfigBuilderMap = map[string]func() *Config{
		MainnetName: MainnetConfig,
		DevnetName:  DevnetConfig,
	}
}

// MainnetConfig points at mainnet-beta and the production hotkey service.
func MainnetConfig() *Config {
	cfg := baseConfig()
	cfg.Chain.RPCEndpoint = "https://api.mainnet-beta.solana.com"
	cfg.Chain.Commitment = CommitmentFinalized
	cfg.Chain.RequestsPerSecond = 5
	cfg.Chain.Burst = 10
	cfg.Hotkey.Endpoint = "https://cpi.crunchdao.com/"
	return cfg
}

// DevnetConfig points at devnet and the staging hotkey service.
func DevnetConfig() *Config {
	cfg := baseConfig()
	cfg.Chain.RPCEndpoint = "https://api.devnet.solana.com"
	cfg.Hotkey.Endpoint = "https://cpi.crunchdao.io/"
	cfg.Watcher.Timeout = Duration(5 * time.Minute)
	return cfg
}

// baseConfig never consults BuildNet, presets start from the local defaults.
func baseConfig() *Config {
	return localConfig()
}
