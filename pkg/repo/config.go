package repo

import (
	"encoding/json"
	"os"
	"path"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

type Duration time.Duration

func (d *Duration) MarshalText() (text []byte, err error) {
	return []byte(time.Duration(*d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	x, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(x)
	return nil
}

func StringToTimeDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(Duration(5)) {
			return data, nil
		}

		d, err := time.ParseDuration(data.(string))
		if err != nil {
			return nil, err
		}
		return Duration(d), nil
	}
}

func (d *Duration) ToDuration() time.Duration {
	return time.Duration(*d)
}

func (d *Duration) String() string {
	return time.Duration(*d).String()
}

type Config struct {
	Port       Port       `mapstructure:"port" toml:"port"`
	Chain      Chain      `mapstructure:"chain" toml:"chain"`
	Multisig   Multisig   `mapstructure:"multisig" toml:"multisig"`
	Scanner    Scanner    `mapstructure:"scanner" toml:"scanner"`
	Enrollment Enrollment `mapstructure:"enrollment" toml:"enrollment"`
	Watcher    Watcher    `mapstructure:"watcher" toml:"watcher"`
	Storage    Storage    `mapstructure:"storage" toml:"storage"`
	Hotkey     Hotkey     `mapstructure:"hotkey" toml:"hotkey"`
	Monitor    Monitor    `mapstructure:"monitor" toml:"monitor"`
	Log        Log        `mapstructure:"log" toml:"log"`
}

type Port struct {
	JsonRpc int64 `mapstructure:"jsonrpc" toml:"jsonrpc"`
	Monitor int64 `mapstructure:"monitor" toml:"monitor"`
}

// Retry describes a bounded retry policy. Backoff is one of fixed, fibonacci, exponential.
type Retry struct {
	Limit   uint     `mapstructure:"limit" toml:"limit"`
	Wait    Duration `mapstructure:"wait" toml:"wait"`
	Backoff string   `mapstructure:"backoff" toml:"backoff"`
}

type Chain struct {
	RPCEndpoint       string   `mapstructure:"rpc_endpoint" toml:"rpc_endpoint"`
	Commitment        string   `mapstructure:"commitment" toml:"commitment"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" toml:"requests_per_second"`
	Burst             int      `mapstructure:"burst" toml:"burst"`
	TxCacheSize       int      `mapstructure:"tx_cache_size" toml:"tx_cache_size"`
	ConfirmInterval   Duration `mapstructure:"confirm_interval" toml:"confirm_interval"`
	ConfirmTimeout    Duration `mapstructure:"confirm_timeout" toml:"confirm_timeout"`
	SkipPreflight     bool     `mapstructure:"skip_preflight" toml:"skip_preflight"`

	// path of a solana-keygen keypair file, relative paths resolve against the repo root
	Keypair string `mapstructure:"keypair" toml:"keypair"`
	Retry   Retry  `mapstructure:"retry" toml:"retry"`
}

// Multisig switches the session into proposal mode when Address is set.
type Multisig struct {
	Address           string `mapstructure:"address" toml:"address"`
	VaultIndex        uint8  `mapstructure:"vault_index" toml:"vault_index"`
	ProgramID         string `mapstructure:"program_id" toml:"program_id"`
	ProposalURLFormat string `mapstructure:"proposal_url_format" toml:"proposal_url_format"`
}

type Scanner struct {
	WindowSize  int    `mapstructure:"window_size" toml:"window_size"`
	Marker      string `mapstructure:"marker" toml:"marker"`
	Concurrency int    `mapstructure:"concurrency" toml:"concurrency"`
	Retry       Retry  `mapstructure:"retry" toml:"retry"`
}

type Enrollment struct {
	RequiredKeys  []string `mapstructure:"required_keys" toml:"required_keys"`
	ComparisonKey string   `mapstructure:"comparison_key" toml:"comparison_key"`
	CacheSize     int      `mapstructure:"cache_size" toml:"cache_size"`
}

type Watcher struct {
	PollInterval Duration `mapstructure:"poll_interval" toml:"poll_interval"`
	MaxAttempts  uint     `mapstructure:"max_attempts" toml:"max_attempts"`
	Timeout      Duration `mapstructure:"timeout" toml:"timeout"`
	Persist      bool     `mapstructure:"persist" toml:"persist"`
	Retry        Retry    `mapstructure:"retry" toml:"retry"`
}

// Storage backs the durable proposal registry. KVType is leveldb or memory.
type Storage struct {
	KVType string `mapstructure:"kv_type" toml:"kv_type"`
	Sync   bool   `mapstructure:"sync" toml:"sync"`
}

type Hotkey struct {
	Endpoint string   `mapstructure:"endpoint" toml:"endpoint"`
	Timeout  Duration `mapstructure:"timeout" toml:"timeout"`
}

type Monitor struct {
	Enable bool `mapstructure:"enable" toml:"enable"`
}

type Log struct {
	Level            string `mapstructure:"level" toml:"level"`
	Filename         string `mapstructure:"filename" toml:"filename"`
	ReportCaller     bool   `mapstructure:"report_caller" toml:"report_caller"`
	EnableColor      bool   `mapstructure:"enable_color" toml:"enable_color"`
	DisableTimestamp bool   `mapstructure:"disable_timestamp" toml:"disable_timestamp"`
	EnableJSON       bool   `mapstructure:"enable_json" toml:"enable_json"`

	Module LogModule `mapstructure:"module" toml:"module"`
}

type LogModule struct {
	App        string `mapstructure:"app" toml:"app"`
	API        string `mapstructure:"api" toml:"api"`
	Chain      string `mapstructure:"chain" toml:"chain"`
	History    string `mapstructure:"history" toml:"history"`
	Enrollment string `mapstructure:"enrollment" toml:"enrollment"`
	Executor   string `mapstructure:"executor" toml:"executor"`
	Proposal   string `mapstructure:"proposal" toml:"proposal"`
	Multisig   string `mapstructure:"multisig" toml:"multisig"`
	Storage    string `mapstructure:"storage" toml:"storage"`
}

// MultisigMode reports whether actions are routed through multisig proposals.
func (c *Config) MultisigMode() bool {
	return c.Multisig.Address != ""
}

func (c *Config) Bytes() ([]byte, error) {
	ret, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	return ret, nil
}

// DefaultConfig is the preset of the network baked in at build time, or the local defaults.
func DefaultConfig() *Config {
	if netConfigBuilder, ok := NetConfigBuilderMap[BuildNet]; ok {
		return netConfigBuilder()
	}
	return localConfig()
}

func localConfig() *Config {
	return &Config{
		Port: Port{
			JsonRpc: 8898,
			Monitor: 40011,
		},
		Chain: Chain{
			RPCEndpoint:       "https://api.devnet.solana.com",
			Commitment:        CommitmentConfirmed,
			RequestsPerSecond: 10,
			Burst:             20,
			TxCacheSize:       1024,
			ConfirmInterval:   Duration(2 * time.Second),
			ConfirmTimeout:    Duration(120 * time.Second),
			SkipPreflight:     false,
			Keypair:           "keypair.json",
			Retry: Retry{
				Limit:   3,
				Wait:    Duration(500 * time.Millisecond),
				Backoff: BackoffFibonacci,
			},
		},
		Multisig: Multisig{
			Address:           "",
			VaultIndex:        0,
			ProgramID:         SquadsProgramID,
			ProposalURLFormat: DefaultProposalURLFormat,
		},
		Scanner: Scanner{
			WindowSize:  50,
			Marker:      DefaultMemoMarker,
			Concurrency: 4,
			Retry: Retry{
				Limit:   3,
				Wait:    Duration(500 * time.Millisecond),
				Backoff: BackoffFibonacci,
			},
		},
		Enrollment: Enrollment{
			RequiredKeys:  []string{"cert_pub", "hotkey"},
			ComparisonKey: "hotkey",
			CacheSize:     1024,
		},
		Watcher: Watcher{
			PollInterval: Duration(3 * time.Second),
			MaxAttempts:  200,
			Timeout:      Duration(10 * time.Minute),
			Persist:      true,
			Retry: Retry{
				Limit:   2,
				Wait:    Duration(300 * time.Millisecond),
				Backoff: BackoffFixed,
			},
		},
		Storage: Storage{
			KVType: KVStorageTypeLeveldb,
			Sync:   true,
		},
		Hotkey: Hotkey{
			Endpoint: "https://cpi.crunchdao.com/",
			Timeout:  Duration(10 * time.Second),
		},
		Monitor: Monitor{
			Enable: true,
		},
		Log: Log{
			Level:            "info",
			Filename:         "coordinator-settle",
			ReportCaller:     false,
			EnableColor:      true,
			DisableTimestamp: false,
			EnableJSON:       false,
			Module: LogModule{
				App:        "info",
				API:        "info",
				Chain:      "info",
				History:    "info",
				Enrollment: "info",
				Executor:   "info",
				Proposal:   "info",
				Multisig:   "info",
				Storage:    "info",
			},
		},
	}
}

func LoadConfig(repoRoot string) (*Config, error) {
	cfg, err := func() (*Config, error) {
		cfg := DefaultConfig()
		cfgPath := path.Join(repoRoot, CfgFileName)
		if !fileExist(cfgPath) {
			err := os.MkdirAll(repoRoot, 0755)
			if err != nil {
				return nil, errors.Wrap(err, "failed to build default config")
			}

			if err := writeConfigWithEnv(cfgPath, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to build default config")
			}
		} else {
			if err := CheckWritable(repoRoot); err != nil {
				return nil, err
			}
			if err := readConfigFromFile(cfgPath, cfg); err != nil {
				return nil, err
			}
		}

		return cfg, nil
	}()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return cfg, nil
}
