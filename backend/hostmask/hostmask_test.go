package hostmask

import (
	"errors"
	"testing"
)

func TestParseMask(t *testing.T) {
	mask, err := Parse("Disconsented!~quassel@irc.disconsented.com")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if mask.Nick != "Disconsented" {
		t.Fatalf("expected nick Disconsented, got %q", mask.Nick)
	}
	if mask.Ident != "~quassel" {
		t.Fatalf("expected ident ~quassel, got %q", mask.Ident)
	}
	if mask.Host.Raw != "irc.disconsented.com" {
		t.Fatalf("expected host irc.disconsented.com, got %q", mask.Host.Raw)
	}
	if mask.Subnet {
		t.Fatalf("subnet flag should default to false")
	}
	if got := mask.String(); got != "Disconsented!~quassel@irc.disconsented.com" {
		t.Fatalf("String round trip mismatch: %q", got)
	}
}

func TestParseMaskBoundaries(t *testing.T) {
	// The split must be position exact: nothing dropped, nothing shifted.
	mask, err := Parse("a!b@c")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if mask.Nick != "a" || mask.Ident != "b" || mask.Host.Raw != "c" {
		t.Fatalf("bad split: %q %q %q", mask.Nick, mask.Ident, mask.Host.Raw)
	}

	// '@' inside the ident position, empty components.
	mask, err = Parse("!~x@")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if mask.Nick != "" || mask.Ident != "~x" || mask.Host.Raw != "" {
		t.Fatalf("bad split: %q %q %q", mask.Nick, mask.Ident, mask.Host.Raw)
	}

	// Only the first '!' and the first '@' after it are delimiters.
	mask, err = Parse("n!i!x@h@t")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if mask.Nick != "n" || mask.Ident != "i!x" || mask.Host.Raw != "h@t" {
		t.Fatalf("bad split: %q %q %q", mask.Nick, mask.Ident, mask.Host.Raw)
	}
}

func TestParseMaskMissingDelimiters(t *testing.T) {
	if _, err := Parse("no-delimiters-here"); !errors.Is(err, ErrMissingIdent) {
		t.Fatalf("expected ErrMissingIdent, got %v", err)
	}
	// A string lacking both delimiters reports the missing ident first,
	// even when an '@' sits before where a '!' would go.
	if _, err := Parse("host@only"); !errors.Is(err, ErrMissingIdent) {
		t.Fatalf("expected ErrMissingIdent, got %v", err)
	}
	if _, err := Parse("nick!ident-only"); !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost, got %v", err)
	}
	// The '@' must come after the '!'.
	if _, err := Parse("ni@ck!ident"); !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost, got %v", err)
	}
}

func TestHostEqualityIgnoresParsedAddress(t *testing.T) {
	a := NewHost("66.205.192.51")
	b := Host{Raw: "66.205.192.51"}
	if !a.Addr.IsValid() {
		t.Fatalf("expected classifier to find an address")
	}
	if !a.Equal(b) || !b.Equal(a) {
		t.Fatalf("hosts with identical raw text must be equal")
	}
}

func TestFingerprints(t *testing.T) {
	if got := Nick("Disconsented").Fingerprint(); got != "Disconsented%" {
		t.Fatalf("nick fingerprint: %q", got)
	}
	if got := Ident("~quassel").Fingerprint(); got != "%~quassel%" {
		t.Fatalf("ident fingerprint: %q", got)
	}
	if got := NewHost("user/kks").Fingerprint(); got != "%user/kks" {
		t.Fatalf("plain host fingerprint: %q", got)
	}

	host := NewHost("66.205.192.51")
	if got := host.Fingerprint(); got != "%66_205_192_51%" {
		t.Fatalf("ipv4 fingerprint: %q", got)
	}
	host.Subnet = true
	if got := host.Fingerprint(); got != "%66_205_192%" {
		t.Fatalf("ipv4 subnet fingerprint: %q", got)
	}
}

func TestDashedHostFingerprint(t *testing.T) {
	host := NewHost("static-ip-87-248-67-133.promax.media.pl")
	if !host.Addr.Is4() {
		t.Fatalf("expected embedded IPv4, got %v", host.Addr)
	}
	if got := host.Addr.String(); got != "87.248.67.133" {
		t.Fatalf("expected 87.248.67.133, got %s", got)
	}
	host.Subnet = true
	if got := host.Fingerprint(); got != "%87_248_67%" {
		t.Fatalf("subnet fingerprint: %q", got)
	}
}

func TestIPv6HostFallsBackToSuffixMatch(t *testing.T) {
	host := NewHost("2001:db8::aa:1")
	if !host.Addr.Is6() {
		t.Fatalf("expected IPv6, got %v", host.Addr)
	}
	if got := host.Fingerprint(); got != "%2001:db8::aa:1" {
		t.Fatalf("ipv6 fingerprint: %q", got)
	}
	host.Subnet = true
	if got := host.Fingerprint(); got != "%2001:db8::aa:1" {
		t.Fatalf("subnet flag must not change an ipv6 fingerprint: %q", got)
	}
}

func TestWithSubnetPropagates(t *testing.T) {
	mask, err := Parse("a!b@10.1.2.3")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	flagged := mask.WithSubnet(true)
	if !flagged.Subnet || !flagged.Host.Subnet {
		t.Fatalf("subnet flag not propagated to host")
	}
	if mask.Subnet || mask.Host.Subnet {
		t.Fatalf("WithSubnet must not mutate the receiver")
	}
	if got := flagged.Host.Fingerprint(); got != "%10_1_2%" {
		t.Fatalf("subnet fingerprint: %q", got)
	}
}

func TestSubnetRange(t *testing.T) {
	host := NewHost("87.248.67.133")
	if _, ok := host.SubnetRange(); ok {
		t.Fatalf("range must be undefined while the subnet flag is off")
	}
	host.Subnet = true
	r, ok := host.SubnetRange()
	if !ok {
		t.Fatalf("expected a range for a flagged IPv4 host")
	}
	if r.From().String() != "87.248.67.0" || r.To().String() != "87.248.67.255" {
		t.Fatalf("unexpected range %s", r)
	}
}

func TestTermFingerprintDispatch(t *testing.T) {
	if got := NickTerm("kks").Fingerprint(); got != "kks%" {
		t.Fatalf("nick term: %q", got)
	}
	if got := IdentTerm("~kks").Fingerprint(); got != "%~kks%" {
		t.Fatalf("ident term: %q", got)
	}
	if got := HostTerm(NewHost("user/kks")).Fingerprint(); got != "%user/kks" {
		t.Fatalf("host term: %q", got)
	}
	if got := HostTerm(NewHost("user/kks")).Text(); got != "user/kks" {
		t.Fatalf("host term text: %q", got)
	}
}
