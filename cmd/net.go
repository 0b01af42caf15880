package main

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/luca-patrignani/mental-rps/network"
)

// guessIpAddress fills the octets missing from partialAddr with those of
// baseAddress, so that "42" next to 192.168.0.1 becomes 192.168.0.42.
func guessIpAddress(baseAddress net.IP, partialAddr string) (net.IP, error) {
	base := baseAddress.To4()
	if base == nil {
		return nil, fmt.Errorf("cannot complete %q from non IPv4 address %v", partialAddr, baseAddress)
	}
	ip := make(net.IP, len(base))
	copy(ip, base)
	if partialAddr == "" {
		return ip, nil
	}
	octets := strings.Split(partialAddr, ".")
	if len(octets) > len(ip) {
		return nil, fmt.Errorf("too many octets in %q", partialAddr)
	}
	for i, o := range octets {
		var octet byte
		if _, err := fmt.Sscanf(o, "%d", &octet); err != nil {
			return nil, fmt.Errorf("invalid octet %q: %w", o, err)
		}
		ip[len(ip)-len(octets)+i] = octet
	}
	return ip, nil
}

// resolvePeer turns the --peer flag into the IP:port the opponent listens
// on. A full IP is kept, a host made only of digits and dots is completed
// from the local address and a hostname is resolved.
func resolvePeer(local string, raw string) (string, error) {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return "", fmt.Errorf("invalid peer address %q: %w", raw, err)
	}
	if ip := net.ParseIP(host); ip != nil {
		return net.JoinHostPort(ip.String(), port), nil
	}
	if strings.Trim(host, "0123456789.") != "" {
		addr, err := net.ResolveTCPAddr("tcp", raw)
		if err != nil {
			return "", fmt.Errorf("cannot resolve peer %q: %w", raw, err)
		}
		return net.JoinHostPort(addr.IP.String(), port), nil
	}
	localHost, _, err := net.SplitHostPort(local)
	if err != nil {
		return "", err
	}
	ip, err := guessIpAddress(net.ParseIP(localHost), host)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(ip.String(), port), nil
}

// advertisedAddress is the address the opponent dials to reach l. A
// wildcard listener is named by the interface routing towards the peer, or
// by the first non loopback IPv4 address when the peer is not known yet.
func advertisedAddress(l net.Listener, towards string) (string, error) {
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return "", fmt.Errorf("listener is not TCP")
	}
	ip := tcpAddr.IP
	if ip.IsUnspecified() {
		var err error
		if towards != "" {
			ip, err = routeTo(towards)
		} else {
			ip, err = interfaceIP()
		}
		if err != nil {
			return "", err
		}
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(tcpAddr.Port)), nil
}

// routeTo returns the local IP used to reach addr. Dialing UDP sends nothing.
func routeTo(addr string) (net.IP, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("no route to %s: %w", addr, err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}

func interfaceIP() (net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	if ip := pickIPv4(addrs); ip != nil {
		return ip, nil
	}
	return net.IPv4(127, 0, 0, 1), nil
}

// pickIPv4 returns the first IPv4 address that is neither loopback nor
// link-local, nil if there is none.
func pickIPv4(addrs []net.Addr) net.IP {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		default:
			continue
		}
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() && !ip4.IsLinkLocalUnicast() {
			return ip4
		}
	}
	return nil
}

// createP2P ranks the players by sorted address. self is the address this
// process advertises, as the opponent names it; l may listen on a wildcard.
func createP2P(self string, addresses []string, l net.Listener, opts ...network.PeerOption) (*network.P2P, int, error) {
	sorted := append([]string(nil), addresses...)
	sort.Strings(sorted)
	mapAddresses := make(map[int]string)
	myRank := -1
	for i, addr := range sorted {
		if i > 0 && addr == sorted[i-1] {
			return nil, 0, fmt.Errorf("address %s is listed twice", addr)
		}
		mapAddresses[i] = addr
		if addr == self {
			myRank = i
		}
	}
	if myRank < 0 {
		return nil, 0, fmt.Errorf("own address %s is not among %v", self, addresses)
	}
	peer := network.NewPeer(myRank, mapAddresses, l, opts...)
	return network.NewP2P(peer), myRank, nil
}
