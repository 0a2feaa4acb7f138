package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/cli"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
)

var (
	flagHistoryEntity string
	flagHistoryMonths int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show monthly totals across past months for one entity",
	Long: "Past months are frozen at the value they ended with; this lists them\n" +
		"most recent first. Defaults to the WAN interface.",
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&flagHistoryEntity, "entity", "e", model.WANKey, "Entity key (MAC address, or main_wan)")
	historyCmd.Flags().IntVarP(&flagHistoryMonths, "months", "n", 12, "How many months to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	history, err := st.MonthlyHistory(flagHistoryEntity, flagHistoryMonths)
	if err != nil {
		return err
	}

	fmt.Println()
	if len(history) == 0 {
		fmt.Printf("  No history recorded for %s.\n\n", flagHistoryEntity)
		return nil
	}

	rows := make([][]string, 0, len(history))
	for _, u := range history {
		rows = append(rows, []string{
			string(u.Month),
			cli.FormatBytes(u.RxBytes),
			cli.FormatBytes(u.TxBytes),
			cli.FormatBytes(u.RxBytes + u.TxBytes),
		})
	}

	fmt.Println(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Monthly history — %s", flagHistoryEntity),
		Headers: []string{"Month", "Received", "Transmitted", "Combined"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
