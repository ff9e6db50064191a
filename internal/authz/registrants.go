package authz

import (
	"crypto/sha256"
	"crypto/subtle"
	"sort"
)

// Registrants is the fixed set of tenants allowed to own accounts, keyed by
// identifier. It is built once from config and never mutated.
type Registrants struct {
	tokens map[string][32]byte
}

func NewRegistrants(tokens map[string]string) *Registrants {
	r := &Registrants{tokens: make(map[string][32]byte, len(tokens))}
	for id, tok := range tokens {
		r.tokens[id] = sha256.Sum256([]byte(tok))
	}
	return r
}

// Valid reports whether id is one of the enumerated registrants.
func (r *Registrants) Valid(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.tokens[id]
	return ok
}

// Authenticate checks basic-auth credentials and returns the registrant identity.
// Tokens are compared as fixed-size digests so timing does not depend on length.
func (r *Registrants) Authenticate(username, password string) (string, bool) {
	if r == nil {
		return "", false
	}
	want, ok := r.tokens[username]
	if !ok {
		// keep the comparison cost for unknown users
		want = sha256.Sum256([]byte{0})
	}
	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 || !ok {
		return "", false
	}
	return username, true
}

// IDs returns registrant identifiers in stable order.
func (r *Registrants) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.tokens))
	for id := range r.tokens {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
