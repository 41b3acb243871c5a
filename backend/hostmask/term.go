package hostmask

// TermKind tags the closed set of queryable mask components.
type TermKind int

const (
	KindNick TermKind = iota
	KindIdent
	KindHost
)

func (k TermKind) String() string {
	switch k {
	case KindNick:
		return "nick"
	case KindIdent:
		return "ident"
	case KindHost:
		return "host"
	default:
		return "unknown"
	}
}

// Term is one frontier value awaiting a store query. Exactly one of the
// component fields is meaningful, selected by Kind.
type Term struct {
	Kind  TermKind
	Nick  Nick
	Ident Ident
	Host  Host
}

func NickTerm(n Nick) Term {
	return Term{Kind: KindNick, Nick: n}
}

func IdentTerm(i Ident) Term {
	return Term{Kind: KindIdent, Ident: i}
}

func HostTerm(h Host) Term {
	return Term{Kind: KindHost, Host: h}
}

// Fingerprint derives the wildcard search pattern for the carried component.
func (t Term) Fingerprint() string {
	switch t.Kind {
	case KindIdent:
		return t.Ident.Fingerprint()
	case KindHost:
		return t.Host.Fingerprint()
	default:
		return t.Nick.Fingerprint()
	}
}

// Text returns the raw component value, for logging.
func (t Term) Text() string {
	switch t.Kind {
	case KindIdent:
		return string(t.Ident)
	case KindHost:
		return t.Host.Raw
	default:
		return string(t.Nick)
	}
}
