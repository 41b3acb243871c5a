package hostmask

import (
	"errors"
	"net/netip"
	"strconv"
	"strings"

	"go4.org/netipx"
)

var (
	ErrMissingIdent = errors.New("missing '!' symbol; cannot find ident")
	ErrMissingHost  = errors.New("missing '@' symbol; cannot find host")
)

// Nick is the username-like token before the '!' of a mask.
type Nick string

// Ident is the identd-reported token between '!' and '@', conventionally
// prefixed with '~' when unauthenticated.
type Ident string

// Host carries the raw host text together with an embedded IP address when
// the classifier found one. The raw text is the identity; the parsed address
// only steers fingerprint generation.
type Host struct {
	Raw    string
	Addr   netip.Addr
	Subnet bool
}

// NewHost classifies raw host text, extracting an embedded IPv4 address
// first and an IPv6 literal only when no IPv4 run is present. Classification
// never fails; text without an address yields a text-only host.
func NewHost(raw string) Host {
	if addr, ok := findIPv4(raw); ok {
		return Host{Raw: raw, Addr: addr}
	}
	if addr, ok := findIPv6(raw); ok {
		return Host{Raw: raw, Addr: addr}
	}
	return Host{Raw: raw}
}

// Equal compares hosts by raw text only; a diverging address-detection
// result on identical text does not make two hosts distinct.
func (h Host) Equal(other Host) bool {
	return h.Raw == other.Raw
}

func (h Host) String() string {
	return h.Raw
}

// Mask is a parsed nick!ident@host identity. The subnet flag is the only
// field callers adjust after parsing; it widens host fingerprints to the
// containing /24 block.
type Mask struct {
	Nick   Nick
	Ident  Ident
	Host   Host
	Subnet bool
}

// Parse splits a raw mask at the first '!' and the first '@' after it.
// A string without '!' reports ErrMissingIdent before any '@' check.
func Parse(s string) (Mask, error) {
	bang := strings.IndexByte(s, '!')
	if bang < 0 {
		return Mask{}, ErrMissingIdent
	}
	at := strings.IndexByte(s[bang+1:], '@')
	if at < 0 {
		return Mask{}, ErrMissingHost
	}
	at += bang + 1
	return Mask{
		Nick:  Nick(s[:bang]),
		Ident: Ident(s[bang+1 : at]),
		Host:  NewHost(s[at+1:]),
	}, nil
}

// WithSubnet returns a copy of the mask with the subnet flag applied to the
// mask and its host.
func (m Mask) WithSubnet(on bool) Mask {
	m.Subnet = on
	m.Host.Subnet = on
	return m
}

func (m Mask) String() string {
	return string(m.Nick) + "!" + string(m.Ident) + "@" + m.Host.Raw
}

// Fingerprint is the nick search pattern: a prefix match, tolerating the
// numeric and away-status suffixes users accumulate.
func (n Nick) Fingerprint() string {
	return string(n) + "%"
}

// Fingerprint is the ident search pattern: a substring match, tolerating
// leading and trailing decoration.
func (i Ident) Fingerprint() string {
	return "%" + string(i) + "%"
}

// Fingerprint is the host search pattern. Hosts with an embedded IPv4
// address match on their octets joined by the single-character LIKE
// wildcard, so dotted and dashed renderings of the same address both hit;
// the subnet flag drops the last octet to cover the whole /24 block.
// Anything else, IPv6 literals included, anchors the raw text as a suffix.
func (h Host) Fingerprint() string {
	if h.Addr.Is4() {
		oct := h.Addr.As4()
		n := 4
		if h.Subnet {
			n = 3
		}
		parts := make([]string, n)
		for i := 0; i < n; i++ {
			parts[i] = strconv.Itoa(int(oct[i]))
		}
		return "%" + strings.Join(parts, "_") + "%"
	}
	return "%" + h.Raw
}

// SubnetRange reports the address range a subnet-generalized fingerprint
// covers. It is defined only for IPv4 hosts with the subnet flag set.
func (h Host) SubnetRange() (netipx.IPRange, bool) {
	if !h.Subnet || !h.Addr.Is4() {
		return netipx.IPRange{}, false
	}
	prefix, err := h.Addr.Prefix(24)
	if err != nil {
		return netipx.IPRange{}, false
	}
	return netipx.RangeOfPrefix(prefix), true
}
