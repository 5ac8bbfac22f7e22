package affiliate

import (
	"strings"

	"github.com/google/uuid"
)

// MatchOutcome describes how (or whether) an imported row was resolved to an affiliate
type MatchOutcome string

const (
	// MatchedByCode means the row's customer code matched exactly
	MatchedByCode MatchOutcome = "MATCHED_BY_CODE"
	// MatchedByName means the normalized display name matched exactly one affiliate
	MatchedByName MatchOutcome = "MATCHED_BY_NAME"
	// Unmatched means no affiliate could be resolved
	Unmatched MatchOutcome = "UNMATCHED"
	// AmbiguousName means two or more affiliates share the normalized name;
	// the row is treated as unmatched rather than guessing
	AmbiguousName MatchOutcome = "AMBIGUOUS_NAME"
)

// NormalizeName lowercases a display name and collapses internal whitespace,
// so "Jane  Doe" and "jane doe" compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Matcher resolves imported row references against a fixed set of affiliate
// identities. Matching is pure: build once per import batch, then resolve
// rows in any order.
type Matcher struct {
	byCode map[string]*Identity
	byName map[string][]*Identity
}

// NewMatcher builds a matcher index over the given identities
func NewMatcher(identities []*Identity) *Matcher {
	m := &Matcher{
		byCode: make(map[string]*Identity, len(identities)),
		byName: make(map[string][]*Identity, len(identities)),
	}
	for _, id := range identities {
		if id.HasCustomerCode() {
			m.byCode[strings.TrimSpace(*id.CustomerCode)] = id
		}
		if key := NormalizeName(id.DisplayName); key != "" {
			m.byName[key] = append(m.byName[key], id)
		}
	}
	return m
}

// Resolve resolves a row's affiliate reference to at most one identity.
// Priority: exact customer code, then unique normalized display name.
// An ambiguous name resolves to no match, never a guess.
func (m *Matcher) Resolve(customerCode, displayName string) (*Identity, MatchOutcome) {
	if code := strings.TrimSpace(customerCode); code != "" {
		if id, ok := m.byCode[code]; ok {
			return id, MatchedByCode
		}
	}

	key := NormalizeName(displayName)
	if key == "" {
		return nil, Unmatched
	}
	candidates := m.byName[key]
	switch len(candidates) {
	case 0:
		return nil, Unmatched
	case 1:
		return candidates[0], MatchedByName
	default:
		return nil, AmbiguousName
	}
}

// ResolveID is a convenience wrapper returning only the affiliate ID
func (m *Matcher) ResolveID(customerCode, displayName string) (uuid.UUID, MatchOutcome) {
	id, outcome := m.Resolve(customerCode, displayName)
	if id == nil {
		return uuid.Nil, outcome
	}
	return id.ID, outcome
}
