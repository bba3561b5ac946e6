// Package privacy keeps raw client identifiers out of logs and shared stores.
package privacy

import (
	"encoding/hex"
	"net"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// AnonymizeIP truncates an address to its network prefix (/24 for IPv4, /48 for
// IPv6) so log lines stay useful for abuse triage without identifying a client.
func AnonymizeIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return ""
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String()
}

// HashIdentifier returns a stable keyed digest of s, hex encoded. The key may be
// empty; an invalid key length falls back to an unkeyed digest.
func HashIdentifier(key []byte, s string) string {
	h, err := blake2b.New256(key)
	if err != nil {
		sum := blake2b.Sum256([]byte(s))
		return hex.EncodeToString(sum[:16])
	}
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
