package rpsl

import "net/netip"

// Origin enumerates the channel a submission arrived on, relevant to
// AuthApiToken scope checks.
type Origin int

const (
	OriginUnknown Origin = iota
	OriginWeb
	OriginEmail
	OriginAPI
)

func (o Origin) String() string {
	switch o {
	case OriginWeb:
		return "web"
	case OriginEmail:
		return "email"
	case OriginAPI:
		return "api"
	default:
		return "other"
	}
}

// InternalUser is a point-in-time snapshot of the authenticated-user record
// backing the internal-auth mechanism. Treated as immutable for the
// lifetime of a batch: changes to the user's MFA or override flag during a
// batch must not retroactively affect in-flight validation results.
type InternalUser struct {
	// Override, if true, bypasses per-object authentication entirely.
	Override bool

	// Mntners is the set of maintainer keys this user may generally
	// authenticate as (editing objects those maintainers protect).
	Mntners map[MntnerKey]bool

	// MntnersUserManagement is the subset of Mntners usable to edit the
	// maintainer object itself — typically requires stronger assurance
	// (e.g. MFA) than editing objects that maintainer merely protects.
	MntnersUserManagement map[MntnerKey]bool
}

// HasGeneral reports whether the user may authenticate as key for editing
// objects that key protects.
func (u *InternalUser) HasGeneral(key MntnerKey) bool {
	if u == nil {
		return false
	}
	return u.Mntners[key]
}

// HasUserManagement reports whether the user may authenticate as key for
// editing the maintainer object key itself.
func (u *InternalUser) HasUserManagement(key MntnerKey) bool {
	if u == nil {
		return false
	}
	return u.MntnersUserManagement[key]
}

// Credentials is the immutable, per-batch bundle of candidate auth material
// supplied alongside a submission.
type Credentials struct {
	// Passwords is the ordered list of candidate clear-text passwords.
	Passwords []string `validate:"dive,max=4096"`

	// Overrides is the ordered list of candidate override secrets.
	Overrides []string `validate:"dive,max=4096"`

	// APIKeys is the ordered list of candidate API token strings.
	APIKeys []string `validate:"dive,max=4096"`

	// KeycertPK is the optional PGP key-cert PK used for maintainer PGP auth.
	KeycertPK string

	// InternalUser is the optional authenticated-user snapshot.
	InternalUser *InternalUser

	// Origin is the submission's channel.
	Origin Origin

	// RemoteIP is the submitter's address, if known. The zero value means
	// absent (netip.Addr{}.IsValid() == false).
	RemoteIP netip.Addr
}
