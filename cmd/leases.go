package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/cli"
)

var leasesCmd = &cobra.Command{
	Use:   "leases",
	Short: "Show the current DHCP lease table",
	RunE:  runLeases,
}

func init() {
	rootCmd.AddCommand(leasesCmd)
}

func runLeases(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	leases, err := st.ListLeases()
	if err != nil {
		return err
	}

	fmt.Println()
	if len(leases) == 0 {
		fmt.Println("  No leases recorded yet.")
		fmt.Println()
		return nil
	}

	now := time.Now()
	rows := make([][]string, 0, len(leases))
	for _, l := range leases {
		rows = append(rows, []string{
			cli.FormatHostname(l.Hostname),
			l.MAC,
			l.IP,
			cli.FormatExpiry(l.ExpiresAt, now),
		})
	}

	fmt.Println(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("DHCP leases (%d)", len(leases)),
		Headers: []string{"Hostname", "MAC", "IP", "Expires"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
