package maps

import (
	"net/url"
	"strings"
)

// Param is a single named query parameter.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered set of query parameters. Unlike url.Values it
// keeps insertion order when encoding, and a name occurs at most once.
type Params struct {
	pairs []Param
}

// Set writes value under name, replacing an earlier value in place so the
// parameter keeps its original position.
func (p *Params) Set(name, value string) {
	for i := range p.pairs {
		if p.pairs[i].Name == name {
			p.pairs[i].Value = value
			return
		}
	}
	p.pairs = append(p.pairs, Param{Name: name, Value: value})
}

// SetDefault writes value under name only when the name is absent.
func (p *Params) SetDefault(name, value string) {
	if _, ok := p.Get(name); ok {
		return
	}
	p.pairs = append(p.pairs, Param{Name: name, Value: value})
}

// Get returns the value stored under name.
func (p *Params) Get(name string) (string, bool) {
	for _, kv := range p.pairs {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

// Len returns the number of parameters in the set.
func (p *Params) Len() int {
	return len(p.pairs)
}

// Encode renders the set as a query string in insertion order.
func (p *Params) Encode() string {
	var b strings.Builder
	for i, kv := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// newParams builds the final parameter set for one call. Precedence,
// lowest to highest: client defaults, caller extras, endpoint-required
// fields. A required name can never be shadowed by an extra or a default;
// the colliding value is silently dropped. Encoding order is required
// fields first, then extras in the order supplied, then defaults that
// were not overridden.
func newParams(required, extra, defaults []Param) *Params {
	p := &Params{pairs: make([]Param, 0, len(required)+len(extra)+len(defaults))}

	for _, kv := range required {
		p.Set(kv.Name, kv.Value)
	}
	for _, kv := range extra {
		p.SetDefault(kv.Name, kv.Value)
	}
	for _, kv := range defaults {
		p.SetDefault(kv.Name, kv.Value)
	}

	return p
}
