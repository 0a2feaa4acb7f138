package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/config"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/store"
)

var (
	flagDBPath string
	flagMonth  string
	flagQuiet  bool
)

var rootCmd = &cobra.Command{
	Use:   "wrtstat",
	Short: "Monthly WAN and per-client traffic totals for OpenWrt routers",
	Long: "Track true monthly network traffic per WAN interface and per client device\n" +
		"by polling the router's cumulative counters, tolerant of reboots and resets.",
	RunE: runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVarP(&flagMonth, "month", "M", "", "Month to report, e.g. 2026-07 (default: current)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig is the shared config path used by all commands, with the --db
// flag taking precedence over the config file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.General.DBPath = flagDBPath
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.DBPath(), err)
	}
	return st, nil
}
