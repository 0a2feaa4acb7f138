package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to wrtstat!")
	fmt.Println()

	// 1. Router address
	fmt.Println("  1. Router address")
	fmt.Println("     The OpenWrt router serving the CGI stat pages.")
	fmt.Print("     [192.168.1.1] > ")
	addr, _ := reader.ReadString('\n')
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "192.168.1.1"
	}

	router := config.RouterConfig{
		Name:    addr,
		WANURL:  fmt.Sprintf("http://%s/cgi-bin/wan.cgi", addr),
		WifiURL: fmt.Sprintf("http://%s/cgi-bin/totalwifi.cgi", addr),
		DHCPURL: fmt.Sprintf("http://%s/cgi-bin/dhcp.cgi", addr),
	}

	// 2. Extra access point
	fmt.Println()
	fmt.Println("  2. Additional access point (optional)")
	fmt.Println("     An AP that serves only per-client wifi counters.")
	fmt.Print("     [none] > ")
	apAddr, _ := reader.ReadString('\n')
	apAddr = strings.TrimSpace(apAddr)

	cfg.Routers = []config.RouterConfig{router}
	if apAddr != "" {
		cfg.Routers = append(cfg.Routers, config.RouterConfig{
			Name:    apAddr,
			WifiURL: fmt.Sprintf("http://%s/cgi-bin/totalwifi.cgi", apAddr),
		})
	}

	// 3. Poll interval
	fmt.Println()
	fmt.Println("  3. Poll interval")
	fmt.Println("     (1) 15 minutes")
	fmt.Println("     (2) 1 hour [default]")
	fmt.Println("     (3) 6 hours")
	fmt.Print("     > ")
	choice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(choice) {
	case "1":
		cfg.Daemon.SetInterval(15 * time.Minute)
	case "3":
		cfg.Daemon.SetInterval(6 * time.Hour)
	default:
		cfg.Daemon.SetInterval(time.Hour)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Try it: wrtstat collect && wrtstat")
	fmt.Println()
	return nil
}
