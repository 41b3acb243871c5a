package correlate

import "masklink/backend/hostmask"

const (
	defaultDepth       = 3
	defaultConcurrency = 8
)

// DefaultOptions captures the baseline tuning values applied to a run when
// the caller does not specify an explicit value.
type DefaultOptions struct {
	Depth        int
	Concurrency  int
	MaxQPS       int
	FollowIdents bool
}

// Params models one correlation run. Depth bounds the number of expansion
// iterations; Subnet widens IPv4 host fingerprints to their /24 block;
// FollowIdents controls whether ident values drive further queries.
type Params struct {
	Seed         hostmask.Mask
	Subnet       bool
	Depth        int
	FollowIdents bool
	Concurrency  int
	MaxQPS       int
}

// WithDefaults returns a copy of the parameters where unset fields are
// populated from the provided defaults.
func (p Params) WithDefaults(d DefaultOptions) Params {
	cp := p
	if cp.Depth <= 0 {
		cp.Depth = d.Depth
	}
	if cp.Depth <= 0 {
		cp.Depth = defaultDepth
	}
	if cp.Concurrency <= 0 {
		cp.Concurrency = d.Concurrency
	}
	if cp.Concurrency <= 0 {
		cp.Concurrency = defaultConcurrency
	}
	if cp.MaxQPS <= 0 {
		cp.MaxQPS = d.MaxQPS
	}
	if cp.MaxQPS < 0 {
		cp.MaxQPS = 0
	}
	cp.FollowIdents = cp.FollowIdents || d.FollowIdents
	return cp
}
