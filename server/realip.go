package server

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

var privateBlocks = mustParseCIDRs(
	"127.0.0.1/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"100.64.0.0/10", // carrier grade NAT
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, block := range blocks {
		_, n, err := net.ParseCIDR(block)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// IsPrivateIP reports whether the address is under a private or link local CIDR block
func IsPrivateIP(address string) (bool, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return false, errors.New("address is not valid")
	}
	for _, n := range privateBlocks {
		if n.Contains(ip) {
			return true, nil
		}
	}
	return false, nil
}

// RealIP client public IP address from the request headers
func RealIP(r *http.Request) string {
	realIP := r.Header.Get("X-Real-Ip")
	forwardedFor := r.Header.Get("X-Forwarded-For")
	if realIP == "" && forwardedFor == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	for _, address := range strings.Split(forwardedFor, ",") {
		address = strings.TrimSpace(address)
		if private, err := IsPrivateIP(address); err == nil && !private {
			return address
		}
	}
	return realIP
}
