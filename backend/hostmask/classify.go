package hostmask

import (
	"net/netip"
	"strings"
)

// findIPv4 scans raw host text for the leftmost run of four dot- or
// dash-delimited octet groups. Provider prefixes and other numeric noise
// lose the tie-break to whichever candidate starts first. The matched text
// has a trailing separator stripped and dashes normalized to dots before
// parsing.
func findIPv4(s string) (netip.Addr, bool) {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			continue
		}
		end, ok := matchOctets(s, i, 4)
		if !ok {
			continue
		}
		text := strings.TrimRight(s[i:end], ".-")
		text = strings.ReplaceAll(text, "-", ".")
		if addr, err := netip.ParseAddr(text); err == nil && addr.Is4() {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

// matchOctets consumes n octet groups starting at pos, trying longer octets
// first and backtracking across group boundaries. It returns the offset one
// past the matched text, including a trailing separator when one follows
// the final octet.
func matchOctets(s string, pos, n int) (int, bool) {
	run := 0
	for pos+run < len(s) && isDigit(s[pos+run]) {
		run++
	}
	if run > 3 {
		run = 3
	}
	for l := run; l >= 1; l-- {
		if !validOctet(s[pos : pos+l]) {
			continue
		}
		next := pos + l
		sep := next < len(s) && (s[next] == '.' || s[next] == '-')
		if n == 1 {
			// Final group: a separator may trail it, but the match must
			// end on a word boundary either way.
			if sep {
				if next+1 < len(s) && isWord(s[next+1]) {
					return next + 1, true
				}
				return next, true
			}
			if next == len(s) || !isWord(s[next]) {
				return next, true
			}
			continue
		}
		if !sep {
			// Two octet groups cannot abut without a separator.
			continue
		}
		if end, ok := matchOctets(s, next+1, n-1); ok {
			return end, true
		}
	}
	return 0, false
}

// validOctet reports whether the digits form a 0-255 value without leading
// zeros.
func validOctet(digits string) bool {
	if len(digits) > 1 && digits[0] == '0' {
		return false
	}
	v := 0
	for i := 0; i < len(digits); i++ {
		v = v*10 + int(digits[i]-'0')
	}
	return v <= 255
}

// findIPv6 scans for the leftmost IPv6 literal, accepting compressed,
// embedded-IPv4 and zone-id forms. Hostname labels never contain ':', so
// any candidate run is required to.
func findIPv6(s string) (netip.Addr, bool) {
	for i := 0; i < len(s); {
		if !isIPv6Char(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isIPv6Char(s[j]) {
			j++
		}
		end := j
		if end < len(s) && s[end] == '%' {
			k := end + 1
			for k < len(s) && isWord(s[k]) {
				k++
			}
			if k > end+1 {
				end = k
			}
		}
		cand := s[i:end]
		if !strings.Contains(cand, ":") {
			i = j + 1
			continue
		}
		if addr, ok := parseIPv6(cand); ok {
			return addr, true
		}
		// A shorter suffix of the run may still be a literal.
		i++
	}
	return netip.Addr{}, false
}

// parseIPv6 accepts the longest leading slice of the candidate that forms a
// valid literal, so trailing domain labels do not hide an embedded address.
func parseIPv6(cand string) (netip.Addr, bool) {
	for end := len(cand); end >= 2; end-- {
		if addr, err := netip.ParseAddr(cand[:end]); err == nil && addr.Is6() {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWord(c byte) bool {
	return isDigit(c) || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIPv6Char(c byte) bool {
	return isDigit(c) || c == ':' || c == '.' ||
		(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
