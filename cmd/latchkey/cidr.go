package main

import (
	"fmt"
	"net"
)

// maxCIDRExpand bounds subnet expansion so a stray /8 doesn't exhaust
// memory, the same guard the pipeline's own CIDR expander applies.
const maxCIDRExpand = 65536

// expandSubnet turns a CIDR or bare IP into its constituent host
// addresses (spec.md §6 "subnet: expand an IP network into targets").
// This lives in the CLI, not the core scanner packages: expanding a
// network block is an external-collaborator concern, the core only ever
// consumes already-resolved hosts.
func expandSubnet(cidr string) ([]string, error) {
	ip := net.ParseIP(cidr)
	if ip != nil {
		return []string{cidr}, nil
	}

	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid subnet %q: %w", cidr, err)
	}

	ones, bits := ipNet.Mask.Size()
	numIPs := 1 << (bits - ones)
	if numIPs > maxCIDRExpand {
		return nil, fmt.Errorf("subnet %q too large (%d addresses), max is %d", cidr, numIPs, maxCIDRExpand)
	}

	result := make([]string, 0, numIPs)
	current := append(net.IP(nil), ipNet.IP...)
	for i := 0; i < numIPs; i++ {
		result = append(result, current.String())
		incrementIP(current)
	}
	return result, nil
}

func incrementIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}
