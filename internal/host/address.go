package host

import (
	"context"
	"net"
	"os"
	"strings"

	gnet "github.com/shirou/gopsutil/v4/net"
)

const loopbackAddress = "127.0.0.1"

// Address returns the machine's network address for audit records: the
// hostname's resolved IPv4 address, else the first non-loopback interface
// address, else the loopback address.
func Address(ctx context.Context) string {
	if hostname, err := os.Hostname(); err == nil {
		if addr := resolveHostname(ctx, hostname); addr != "" {
			return addr
		}
	}
	if addr := interfaceAddress(ctx); addr != "" {
		return addr
	}
	return loopbackAddress
}

func resolveHostname(ctx context.Context, hostname string) string {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		return ""
	}
	var fallback string
	for _, addr := range addrs {
		if ip4 := addr.IP.To4(); ip4 != nil {
			if !ip4.IsLoopback() {
				return ip4.String()
			}
			if fallback == "" {
				fallback = ip4.String()
			}
		}
	}
	return fallback
}

func interfaceAddress(ctx context.Context) string {
	interfaces, err := gnet.InterfacesWithContext(ctx)
	if err != nil {
		return ""
	}
	for _, iface := range interfaces {
		for _, addr := range iface.Addrs {
			ip, _, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				ip = net.ParseIP(strings.TrimSpace(addr.Addr))
			}
			if ip == nil || ip.IsLoopback() || ip.To4() == nil {
				continue
			}
			return ip.String()
		}
	}
	return ""
}
