// Package store defines the query capabilities the validation core needs
// from the backing registry and the internal auth-model tables, and a
// Postgres-backed implementation plus an in-memory fake for tests.
package store

import (
	"context"
	"net/netip"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
)

// ObjectQuery narrows a lookup against the RPSL object (or suspended
// object) view.
type ObjectQuery struct {
	// Sources restricts the search to these sources; empty means no
	// restriction (callers always pass exactly one source in practice,
	// since reference resolution is scoped to a single source, but the
	// field is a slice to match the underlying query capability named
	// below).
	Sources []string

	// Classes restricts the search to these object classes; empty means
	// any class.
	Classes []rpsl.ObjectClass

	// PKs restricts the search to these primary keys; empty means any PK.
	PKs []string

	// ExactPrefix, if valid, restricts to objects whose PK equals this
	// prefix exactly (used for the route related-object lookup's step 1).
	ExactPrefix netip.Prefix

	// LessSpecificOf, if valid, restricts to objects whose PK equals this
	// prefix exactly; callers pass the already computed one-level
	// less-specific parent (rpsl.LessSpecific) for lookup steps 2/3.
	LessSpecificOf netip.Prefix

	// FirstOnly asks the store to return at most one row, for lookups
	// that only care whether any match exists.
	FirstOnly bool
}

// ObjectRow is one row returned by an object query: enough to reconstruct
// an rpsl.Object (or rpsl.Mntner, for class mntner).
type ObjectRow struct {
	Class      rpsl.ObjectClass
	PK         string
	Source     string
	Text       string
	Attributes map[string][]string
}

// ObjectStore is the read-only query capability the core needs from the
// backing registry. Writes are performed by the caller after aggregation;
// validators only read.
type ObjectStore interface {
	// FindObjects queries the live RPSL object view.
	FindObjects(ctx context.Context, q ObjectQuery) ([]ObjectRow, error)

	// FindSuspended queries the suspended-objects view, same query shape.
	FindSuspended(ctx context.Context, q ObjectQuery) ([]ObjectRow, error)

	// FindReferencingObjects returns every object in source whose relevant
	// inbound-reference attribute (as named by referrers, which may list
	// several attributes for the same referring class) contains targetPK.
	// Used by ReferenceValidator.CheckReferencesFromOthers to find what
	// still points at an object being deleted.
	FindReferencingObjects(ctx context.Context, source string, referrers []rpsl.InboundReferrer, targetPK string) ([]ObjectRow, error)
}

// APIToken is one candidate API key's stored record.
type APIToken struct {
	Token string
	// ValidFor reports whether this token may be used from the given
	// submission origin and remote IP (scope/IP binding).
	ValidFor func(origin rpsl.Origin, remoteIP netip.Addr) bool
}

// AuthSession is the authenticated session over the internal auth-model
// tables: AuthMntner linkage, AuthApiToken lookup, AuthUser snapshot.
type AuthSession interface {
	// IsMigratedMntner reports whether an AuthMntner row links key to the
	// internal user tables ("migrated").
	IsMigratedMntner(ctx context.Context, key rpsl.MntnerKey) (bool, error)

	// ResolveAPIKeyForMntner reports whether any of candidateKeys is a
	// valid, in-scope API token authorizing key, given origin/remoteIP.
	ResolveAPIKeyForMntner(ctx context.Context, key rpsl.MntnerKey, candidateKeys []string, origin rpsl.Origin, remoteIP netip.Addr) (bool, error)
}
