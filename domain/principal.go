package domain

// Principal is a verified caller identity reconstructed from each request's
// credential. It is never persisted.
type Principal struct {
	Username string
	Roles    []string
}

// HasAnyRole reports whether the principal holds at least one of the allowed
// roles. Pure set intersection, no hierarchy.
func (p *Principal) HasAnyRole(allowed ...string) bool {
	if p == nil {
		return false
	}
	for _, want := range allowed {
		for _, have := range p.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
