package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/cli"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/collector"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/config"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/logging"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Poll all configured routers once and update monthly totals",
	Long: "Runs a single collection cycle, suitable for cron. Each router's batch\n" +
		"is applied in one transaction; a failed router leaves its stored state untouched.",
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Routers) == 0 {
		return fmt.Errorf("no routers configured, run `wrtstat setup` or edit %s", config.ConfigPath())
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	log := logging.New(false)
	defer func() { _ = log.Sync() }()

	coll := collector.New(cfg, st, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, runErr := coll.Run(ctx)

	if !flagQuiet {
		fmt.Printf("  Polled %d router(s): %d entities updated (%d new, %d resets), %d leases\n",
			res.Routers, res.Cycle.Entities, res.Cycle.NewEntities, res.Cycle.Resets, res.Cycle.Leases)
		fmt.Printf("  This cycle: %s received, %s transmitted\n",
			cli.FormatBytes(res.Cycle.RxDelta), cli.FormatBytes(res.Cycle.TxDelta))
		if res.Skipped > 0 {
			fmt.Printf("  Skipped %d empty batch(es)\n", res.Skipped)
		}
	}

	// Surface the failure for the scheduler after the healthy routers
	// have already committed.
	return runErr
}
