package models

import (
	"fmt"
	"strings"
	"time"

	"idregistry/internal/identity/traits"
)

// Address identifies a credential holder or the issuing authority.
// Addresses are compared case-insensitively; Normalize before storing.
type Address string

// Normalize lowercases and trims an address so lookups are stable.
func (a Address) Normalize() Address {
	return Address(strings.ToLower(strings.TrimSpace(string(a))))
}

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

// SubjectType classifies who a credential is about. Set at mint time and
// never changed by renewal.
type SubjectType uint8

const (
	SubjectIndividual SubjectType = 0
	SubjectBusiness   SubjectType = 1
)

func (s SubjectType) String() string {
	switch s {
	case SubjectIndividual:
		return "individual"
	case SubjectBusiness:
		return "business"
	default:
		return fmt.Sprintf("subject_type(%d)", uint8(s))
	}
}

// Valid reports whether s is a known subject classification.
func (s SubjectType) Valid() bool {
	return s == SubjectIndividual || s == SubjectBusiness
}

// ParseSubjectType maps the wire name of a subject classification to its
// value.
func ParseSubjectType(name string) (SubjectType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "individual":
		return SubjectIndividual, nil
	case "business":
		return SubjectBusiness, nil
	default:
		return 0, fmt.Errorf("unknown subject type %q", name)
	}
}

// MonitoringWindow is how long after last issuance a credential's sanctions
// screening is considered current. Measured from LastIssuedAt, so renewal
// restarts the window.
const MonitoringWindow = 365 * 24 * time.Hour

// DefaultTraitExpiryWindow bounds the simple trait-validity predicates
// (Unexpired, HasUnexpiredTrait). Measured from MintedAt and configurable
// per deployment.
const DefaultTraitExpiryWindow = 90 * 24 * time.Hour

// Credential is one issued identity token: an owner bound to a trait set,
// subject classification, citizenship, and lifecycle timestamps.
//
// MintedAt is set once at first issuance and never changes. LastIssuedAt is
// reset by every successful renewal and anchors the sanctions monitoring
// window. SanctionsMatch holds the jurisdiction of a recorded screening hit;
// nil means no match recorded. A match is never implicitly cleared, not even
// by renewal.
type Credential struct {
	ID             uint64
	Owner          Address
	MetadataURI    string
	MintedAt       time.Time
	LastIssuedAt   time.Time
	SubjectType    SubjectType
	Citizenship    uint16
	SanctionsMatch *uint16
	Traits         *traits.Set
}

// Renew replaces the mutable issuance fields in place: URI, citizenship, and
// the whole trait set, and moves LastIssuedAt to now. MintedAt, Owner,
// SubjectType, and any recorded sanctions match are untouched.
func (c *Credential) Renew(uri string, traitNames []string, citizenship uint16, now time.Time) {
	c.MetadataURI = uri
	c.Citizenship = citizenship
	c.Traits.ReplaceAll(traitNames)
	c.LastIssuedAt = now
}

// SanctionsMonitored reports whether sanctions screening is still current:
// the monitoring window from last issuance has not elapsed. Pure derivation;
// no expiry state is ever stored.
func (c *Credential) SanctionsMonitored(now time.Time) bool {
	return !now.After(c.LastIssuedAt.Add(MonitoringWindow))
}

// SanctionsSafe reports whether the credential is monitored and has no
// recorded sanctions match anywhere. An unmonitored credential is unsafe,
// not merely unknown.
func (c *Credential) SanctionsSafe(now time.Time) bool {
	return c.SanctionsMonitored(now) && c.SanctionsMatch == nil
}

// SanctionsSafeIn reports whether the credential is monitored and has no
// recorded sanctions match in the given jurisdiction. A match in one
// jurisdiction leaves the credential safe in all others.
func (c *Credential) SanctionsSafeIn(now time.Time, jurisdiction uint16) bool {
	if !c.SanctionsMonitored(now) {
		return false
	}
	return c.SanctionsMatch == nil || *c.SanctionsMatch != jurisdiction
}

// Unexpired reports whether the credential's own validity window, measured
// from first mint, has not elapsed.
func (c *Credential) Unexpired(now time.Time, window time.Duration) bool {
	return !now.After(c.MintedAt.Add(window))
}

// Clone returns a deep copy so stores can hand out records without aliasing
// their internal state.
func (c *Credential) Clone() *Credential {
	dup := *c
	if c.SanctionsMatch != nil {
		match := *c.SanctionsMatch
		dup.SanctionsMatch = &match
	}
	if c.Traits != nil {
		dup.Traits = c.Traits.Clone()
	}
	return &dup
}
