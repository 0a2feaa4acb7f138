package cmd

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
)

var (
	flagPurgeBefore string
	flagPurgeYes    bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete monthly history older than a given month",
	Long: "Normal collection never deletes history; this is the explicit\n" +
		"administrative purge. Checkpoints and the current month are untouched.",
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVar(&flagPurgeBefore, "before", "", "Delete months strictly older than this, e.g. 2025-01 (required)")
	purgeCmd.Flags().BoolVar(&flagPurgeYes, "yes", false, "Skip the confirmation prompt")
	_ = purgeCmd.MarkFlagRequired("before")
	rootCmd.AddCommand(purgeCmd)
}

var monthArgPat = regexp.MustCompile(`^\d{4}-\d{2}$`)

func runPurge(_ *cobra.Command, _ []string) error {
	if !monthArgPat.MatchString(flagPurgeBefore) {
		return fmt.Errorf("invalid month %q, expected YYYY-MM", flagPurgeBefore)
	}

	if !flagPurgeYes {
		fmt.Printf("  Delete all monthly totals before %s? [y/N] ", flagPurgeBefore)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("  Aborted.")
			return nil
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.PurgeBefore(model.YearMonth(flagPurgeBefore))
	if err != nil {
		return err
	}

	fmt.Printf("  Deleted %d row(s).\n", n)
	return nil
}
