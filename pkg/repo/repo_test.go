package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	root := t.TempDir()

	r, err := Load(root)
	require.Nil(t, err)
	require.Equal(t, root, r.RepoRoot)
	require.True(t, Exist(filepath.Join(root, CfgFileName)))

	def := DefaultConfig()
	assert.Equal(t, def.Scanner.WindowSize, r.Config.Scanner.WindowSize)
	assert.Equal(t, def.Enrollment.RequiredKeys, r.Config.Enrollment.RequiredKeys)
	assert.Equal(t, 3*time.Second, r.Config.Watcher.PollInterval.ToDuration())
	assert.False(t, r.Config.MultisigMode())
}

func TestLoadReadsExistingConfig(t *testing.T) {
	root := t.TempDir()

	r, err := Default(root)
	require.Nil(t, err)
	r.Config.Scanner.WindowSize = 20
	r.Config.Multisig.Address = "7ZcRBkE2S9vqGmHD1n4h5C5r2N9w2WkRkJqJ7v2CuQ6b"
	r.Config.Watcher.Timeout = Duration(90 * time.Second)
	require.Nil(t, r.Flush())

	loaded, err := Load(root)
	require.Nil(t, err)
	assert.Equal(t, 20, loaded.Config.Scanner.WindowSize)
	assert.True(t, loaded.Config.MultisigMode())
	assert.Equal(t, 90*time.Second, loaded.Config.Watcher.Timeout.ToDuration())
}

func TestLoadEnvOverride(t *testing.T) {
	root := t.TempDir()
	_, err := Load(root)
	require.Nil(t, err)

	t.Setenv("COORDINATOR_SETTLE_CHAIN_RPC_ENDPOINT", "http://127.0.0.1:8899")
	t.Setenv("COORDINATOR_SETTLE_WATCHER_POLL_INTERVAL", "1s")

	loaded, err := Load(root)
	require.Nil(t, err)
	assert.Equal(t, "http://127.0.0.1:8899", loaded.Config.Chain.RPCEndpoint)
	assert.Equal(t, time.Second, loaded.Config.Watcher.PollInterval.ToDuration())
}

func TestLoadInvalidConfig(t *testing.T) {
	root := t.TempDir()
	err := os.WriteFile(filepath.Join(root, CfgFileName), []byte("[scanner]\nwindow_size = \"many\"\n"), 0644)
	require.Nil(t, err)

	_, err = Load(root)
	require.NotNil(t, err)
}

func TestKeypairPath(t *testing.T) {
	r := &Repo{RepoRoot: "/data/settle", Config: DefaultConfig()}
	assert.Equal(t, "/data/settle/keypair.json", r.KeypairPath())

	r.Config.Chain.Keypair = "/etc/solana/id.json"
	assert.Equal(t, "/etc/solana/id.json", r.KeypairPath())

	r.Config.Chain.Keypair = ""
	assert.Equal(t, "", r.KeypairPath())
}

func TestNetConfigBuilder(t *testing.T) {
	old := BuildNet
	defer func() { BuildNet = old }()

	BuildNet = MainnetName
	cfg := DefaultConfig()
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.Chain.RPCEndpoint)
	assert.Equal(t, CommitmentFinalized, cfg.Chain.Commitment)
	assert.Equal(t, MainnetName, BuildNet)

	BuildNet = DevnetName
	cfg = DefaultConfig()
	assert.Equal(t, "https://cpi.crunchdao.io/", cfg.Hotkey.Endpoint)

	BuildNet = ""
	assert.Equal(t, localConfig().Chain.RPCEndpoint, DefaultConfig().Chain.RPCEndpoint)
	assert.Len(t, NetConfigBuilderMap, 2)
}
