package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voteledger/voteledger/cliparse"
	"github.com/voteledger/voteledger/middleware"
	"github.com/voteledger/voteledger/router"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	GitCommit = "unknown"

	// flagCfg receives the raw flag values; cfg is the resolved configuration
	flagCfg cliparse.Config
	cfg     cliparse.Config
)

var rootCmd = &cobra.Command{
	Use:   "voteledger",
	Short: "Front end for an on-chain voting contract",
	Long: `voteledger lists voting sessions kept on a smart-contract ledger,
casts votes through a connected wallet, shows tallied results and
manages sessions and candidates.

Reads go straight to the ledger. Writes are signed by the configured
wallet (raw key or keystore) and wait for confirmation.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	cliparse.RegisterFlags(rootCmd.PersistentFlags(), &flagCfg)

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the configuration and installs the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := cliparse.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	resolved, err := cliparse.Resolve(cmd.Flags(), flagCfg)
	if err != nil {
		return err
	}
	cfg = resolved

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Skip config resolution
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voteledger %s\n", Version)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP front-end server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	l, closeLedger, err := openLedger(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	connector, err := openConnector(cfg, l)
	if err != nil {
		return err
	}
	if !connector.Available() {
		slog.Warn("no wallet configured, writes are disabled")
	}

	// Create router
	mux := router.NewRouter(l, connector, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "backend", cfg.Backend)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		return err
	}
	slog.Info("Server closed", "error", err)
	return nil
}

// commandContext returns a context cancelled on Ctrl-C.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
