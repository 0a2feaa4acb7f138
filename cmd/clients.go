package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/cli"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List per-client traffic totals for a month",
	RunE:  runClients,
}

func init() {
	rootCmd.AddCommand(clientsCmd)
}

func runClients(_ *cobra.Command, _ []string) error {
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
	clients, err := st.ListClients(month)
	if err != nil {
		return err
	}

	fmt.Println()
	if len(clients) == 0 {
		fmt.Printf("  No client data recorded for %s.\n\n", month)
		return nil
	}

	var totalRx, totalTx uint64
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		totalRx += c.RxBytes
		totalTx += c.TxBytes
		rows = append(rows, []string{
			cli.FormatHostname(c.Hostname),
			c.EntityKey,
			c.IP,
			cli.FormatBytes(c.RxBytes),
			cli.FormatBytes(c.TxBytes),
		})
	}
	rows = append(rows, []string{
		"Total", "", "", cli.FormatBytes(totalRx), cli.FormatBytes(totalTx),
	})

	fmt.Println(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Clients — %s", month),
		Headers: []string{"Hostname", "MAC", "IP", "Received", "Transmitted"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
