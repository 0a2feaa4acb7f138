package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/cli"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
)

const topClients = 10

func reportMonth() model.YearMonth {
	if flagMonth != "" {
		return model.YearMonth(flagMonth)
	}
	return model.MonthOf(time.Now())
}

func runSummary(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	month := reportMonth()

	wan, found, err := st.WANSummary(month)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TRAFFIC — %s", month)))
	fmt.Println()

	if !found {
		fmt.Printf("  No WAN data recorded for %s.\n", month)
		fmt.Println("  Run `wrtstat collect` or start the daemon to begin collecting.")
		fmt.Println()
	} else {
		fmt.Println(cli.RenderTable(cli.Table{
			Title:   "WAN",
			Headers: []string{"", "Received", "Transmitted"},
			Rows: [][]string{
				{"Total", cli.FormatBytes(wan.RxBytes), cli.FormatBytes(wan.TxBytes)},
				{"Bytes", cli.FormatNumber(int64(wan.RxBytes)), cli.FormatNumber(int64(wan.TxBytes))},
			},
		}))
		fmt.Printf("  Last update: %s\n\n", wan.LastUpdate.Local().Format(time.RFC1123))
	}

	clients, err := st.ListClients(month)
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		return nil
	}

	rows := make([][]string, 0, topClients)
	for i, c := range clients {
		if i == topClients {
			break
		}
		rows = append(rows, []string{
			cli.FormatHostname(c.Hostname),
			c.EntityKey,
			cli.FormatBytes(c.RxBytes),
			cli.FormatBytes(c.TxBytes),
		})
	}

	fmt.Println(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Top clients (%d of %d)", len(rows), len(clients)),
		Headers: []string{"Hostname", "MAC", "Received", "Transmitted"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
