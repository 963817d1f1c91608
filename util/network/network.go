package network

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NormalizeAddresses returns a new slice with all the passed peer addresses
// normalized with the given default port, and all duplicates removed.
func NormalizeAddresses(addrs []string, defaultPort string) ([]string, error) {
	normalized := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		normalizedAddress, err := NormalizeAddress(addr, defaultPort)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, normalizedAddress)
	}

	return removeDuplicateAddresses(normalized), nil
}

// NormalizeAddress returns addr with the passed default port appended if
// there is not already a port specified.
func NormalizeAddress(addr, defaultPort string) (string, error) {
	_, _, err := net.SplitHostPort(addr)
	// net.SplitHostPort returns an error if the given host is missing a
	// port, but theoretically it can return an error for other reasons,
	// and this is why we check addrWithPort for validity.
	if err != nil {
		addrWithPort := net.JoinHostPort(strings.Trim(addr, "[]"), defaultPort)
		err := ValidatePeerAddress(addrWithPort)
		if err != nil {
			return "", err
		}

		return addrWithPort, nil
	}
	return addr, ValidatePeerAddress(addr)
}

// ValidatePeerAddress checks that addr has the form host:port, where host is
// an IPv4 address, a bracketed IPv6 address or a hostname, and port is in
// 1..65535.
func ValidatePeerAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.Wrapf(err, "invalid peer address %q", addr)
	}
	if host == "" {
		return errors.Errorf("invalid peer address %q: empty host", addr)
	}
	portNumber, err := strconv.ParseUint(port, 10, 16)
	if err != nil || portNumber == 0 {
		return errors.Errorf("invalid peer address %q: bad port %q", addr, port)
	}
	if net.ParseIP(host) != nil {
		if strings.Contains(host, ":") && !strings.HasPrefix(addr, "[") {
			return errors.Errorf("invalid peer address %q: IPv6 host must be bracketed", addr)
		}
		return nil
	}
	if !isValidHostname(host) {
		return errors.Errorf("invalid peer address %q: bad host %q", addr, host)
	}
	return nil
}

func isValidHostname(host string) bool {
	if len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			isAlphaNumeric := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !isAlphaNumeric && r != '-' {
				return false
			}
		}
	}
	return true
}

// removeDuplicateAddresses returns a new slice with all duplicate entries in
// addrs removed.
func removeDuplicateAddresses(addrs []string) []string {
	result := make([]string, 0, len(addrs))
	seen := map[string]struct{}{}
	for _, val := range addrs {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}
