package cliparse

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Ledger backends
const (
	BackendEth      = "eth"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Port            int
	Backend         string
	RPCURL          string
	ContractAddress string
	ChainID         int64
	DatabaseURL     string
	WalletKey       string
	KeystoreDir     string
	Highlight       time.Duration
	VisitTTL        time.Duration
	LogLevel        string
	LogFormat       string
	ConfigFile      string
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:            3318,
		Backend:         BackendEth,
		RPCURL:          "https://polygon-rpc.com",
		ContractAddress: "0xd2C1833b5fE068f96e038Bfdef4ee02001dbF0A3",
		ChainID:         137,
		Highlight:       1200 * time.Millisecond,
		VisitTTL:        30 * time.Minute,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// RegisterFlags binds the configuration flags on fs to cfg. Flags start at
// their zero value; Resolve fills whatever was not given on the command line.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	// Network config (can be CLI args or env)
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Server port")
	fs.StringVar(&cfg.Backend, "backend", "", "Ledger backend (eth, sqlite or postgres)")
	fs.StringVar(&cfg.RPCURL, "rpc", "", "JSON-RPC endpoint for the eth backend")
	fs.StringVar(&cfg.ContractAddress, "contract", "", "Voting contract address")
	fs.Int64Var(&cfg.ChainID, "chain-id", 0, "Chain ID used when signing")
	fs.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL for the sqlite or postgres backend")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.WalletKey, "wallet-key", "", "Hex private key (prefer env)")
	fs.StringVar(&cfg.KeystoreDir, "keystore", "", "Keystore directory")

	fs.DurationVar(&cfg.Highlight, "highlight", 0, "How long a new vote stays highlighted")
	fs.DurationVar(&cfg.VisitTTL, "visit-ttl", 0, "Idle lifetime of a page visit")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")
	fs.StringVarP(&cfg.ConfigFile, "config", "c", "", "TOML config file")
}

// ParseFlags parses args on a fresh flag set and resolves the result.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := pflag.NewFlagSet("voteledger", pflag.ContinueOnError)
	RegisterFlags(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return Resolve(fs, cfg)
}

// LoadDotEnv loads path into the environment when the file exists.
// Variables already set are not overridden.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// Resolve merges flags > environment > config file > defaults and
// validates the result. flags holds the values bound by RegisterFlags.
func Resolve(fs *pflag.FlagSet, flags Config) (Config, error) {
	cfg := Defaults()

	path := flags.ConfigFile
	if path == "" {
		path = os.Getenv("VOTELEDGER_CONFIG")
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
		cfg.ConfigFile = path
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyFlags(&cfg, fs, flags)

	if cfg.Backend == BackendSQLite && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "file:voteledger.db"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	// Fall back to environment variables
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return errors.New("invalid PORT env variable")
		}
		cfg.Port = port
	}
	if v := os.Getenv("CHAIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.New("invalid CHAIN_ID env variable")
		}
		cfg.ChainID = id
	}
	for name, dst := range map[string]*time.Duration{
		"VOTE_HIGHLIGHT": &cfg.Highlight,
		"VISIT_TTL":      &cfg.VisitTTL,
	} {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s env variable", name)
			}
			*dst = d
		}
	}
	for name, dst := range map[string]*string{
		"LEDGER_BACKEND":   &cfg.Backend,
		"RPC_URL":          &cfg.RPCURL,
		"CONTRACT_ADDRESS": &cfg.ContractAddress,
		"DATABASE_URL":     &cfg.DatabaseURL,
		"WALLET_KEY":       &cfg.WalletKey,
		"KEYSTORE_DIR":     &cfg.KeystoreDir,
		"LOG_LEVEL":        &cfg.LogLevel,
		"LOG_FORMAT":       &cfg.LogFormat,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	return nil
}

func applyFlags(cfg *Config, fs *pflag.FlagSet, flags Config) {
	if fs == nil {
		return
	}
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("port", func() { cfg.Port = flags.Port })
	set("backend", func() { cfg.Backend = flags.Backend })
	set("rpc", func() { cfg.RPCURL = flags.RPCURL })
	set("contract", func() { cfg.ContractAddress = flags.ContractAddress })
	set("chain-id", func() { cfg.ChainID = flags.ChainID })
	set("database-url", func() { cfg.DatabaseURL = flags.DatabaseURL })
	set("wallet-key", func() { cfg.WalletKey = flags.WalletKey })
	set("keystore", func() { cfg.KeystoreDir = flags.KeystoreDir })
	set("highlight", func() { cfg.Highlight = flags.Highlight })
	set("visit-ttl", func() { cfg.VisitTTL = flags.VisitTTL })
	set("log-level", func() { cfg.LogLevel = flags.LogLevel })
	set("log-format", func() { cfg.LogFormat = flags.LogFormat })
}

// Duration is a time.Duration that decodes from TOML strings like "1.2s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

type fileConfig struct {
	Port   int `toml:"port"`
	Ledger struct {
		Backend     string `toml:"backend"`
		RPCURL      string `toml:"rpc_url"`
		Contract    string `toml:"contract"`
		ChainID     int64  `toml:"chain_id"`
		DatabaseURL string `toml:"database_url"`
	} `toml:"ledger"`
	Wallet struct {
		Keystore string `toml:"keystore"`
	} `toml:"wallet"`
	UI struct {
		Highlight Duration `toml:"highlight"`
		VisitTTL  Duration `toml:"visit_ttl"`
	} `toml:"ui"`
	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`
}

// applyFile overlays the non-empty values of a TOML file. Wallet keys are
// never read from files.
func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	for _, f := range []struct {
		src string
		dst *string
	}{
		{fc.Ledger.Backend, &cfg.Backend},
		{fc.Ledger.RPCURL, &cfg.RPCURL},
		{fc.Ledger.Contract, &cfg.ContractAddress},
		{fc.Ledger.DatabaseURL, &cfg.DatabaseURL},
		{fc.Wallet.Keystore, &cfg.KeystoreDir},
		{fc.Logging.Level, &cfg.LogLevel},
		{fc.Logging.Format, &cfg.LogFormat},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	if fc.Ledger.ChainID != 0 {
		cfg.ChainID = fc.Ledger.ChainID
	}
	if fc.UI.Highlight != 0 {
		cfg.Highlight = time.Duration(fc.UI.Highlight)
	}
	if fc.UI.VisitTTL != 0 {
		cfg.VisitTTL = time.Duration(fc.UI.VisitTTL)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.Backend {
	case BackendEth:
		if c.RPCURL == "" {
			return errors.New("RPC URL required for the eth backend (use --rpc or RPC_URL env)")
		}
		if !common.IsHexAddress(c.ContractAddress) {
			return fmt.Errorf("invalid contract address %q", c.ContractAddress)
		}
		if c.ChainID <= 0 {
			return errors.New("chain ID must be positive")
		}
	case BackendSQLite, BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Backend)
	}

	if c.WalletKey != "" && c.KeystoreDir != "" {
		return errors.New("set either a wallet key or a keystore, not both")
	}
	if c.Highlight <= 0 || c.VisitTTL <= 0 {
		return errors.New("durations must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}
