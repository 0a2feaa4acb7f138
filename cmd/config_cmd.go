package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println()
	if config.Exists() {
		fmt.Printf("  Config: %s\n", config.ConfigPath())
	} else {
		fmt.Printf("  Config: %s (not present, showing defaults)\n", config.ConfigPath())
	}
	fmt.Printf("  Database: %s\n", cfg.DBPath())
	fmt.Println()

	enc := toml.NewEncoder(os.Stdout)
	enc.Indent = "  "
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if config.Exists() {
		return fmt.Errorf("config already exists at %s", config.ConfigPath())
	}

	if err := config.Save(config.DefaultConfig()); err != nil {
		return err
	}

	fmt.Printf("  Wrote default config to %s\n", config.ConfigPath())
	fmt.Println("  Edit the [[routers]] entries to match your router endpoints.")
	return nil
}
