// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

Flags are registered on a pflag.FlagSet and resolved into a Config:

	var flags cliparse.Config
	cliparse.RegisterFlags(cmd.PersistentFlags(), &flags)
	// after parsing
	cfg, err := cliparse.Resolve(cmd.Flags(), flags)

ParseFlags does both on a fresh flag set:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Precedence

CLI flags > environment variables > TOML config file > defaults.
LoadDotEnv fills the environment from a .env file without overriding
variables that are already set.

# CLI Flags and Environment Variables

	-p, --port          PORT              (default 3318)
	--backend           LEDGER_BACKEND    eth, sqlite or postgres (default eth)
	--rpc               RPC_URL           (default https://polygon-rpc.com)
	--contract          CONTRACT_ADDRESS  voting contract address
	--chain-id          CHAIN_ID          (default 137)
	-d, --database-url  DATABASE_URL      sqlite/postgres backends
	--wallet-key        WALLET_KEY        hex private key
	--keystore          KEYSTORE_DIR      keystore directory
	--highlight         VOTE_HIGHLIGHT    (default 1.2s)
	--visit-ttl         VISIT_TTL         (default 30m)
	--log-level         LOG_LEVEL         (default info)
	--log-format        LOG_FORMAT        text or json
	-c, --config        VOTELEDGER_CONFIG TOML file

# Config File

	port = 3318

	[ledger]
	backend = "sqlite"
	database_url = "file:voteledger.db"

	[ui]
	highlight = "1.2s"
	visit_ttl = "30m"

	[logging]
	level = "debug"
	format = "json"

Wallet keys are never read from the file.

# Validation

Resolve returns an error for an unknown backend, a malformed contract
address, a non-positive chain ID, a SQL backend without a database URL,
or both a wallet key and a keystore.
*/
package cliparse
