package main

import "github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/cmd"

func main() {
	cmd.Execute()
}
