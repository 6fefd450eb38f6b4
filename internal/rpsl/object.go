// Package rpsl defines the capability interfaces the validation core needs
// from RPSL objects and change requests, without depending on the lexical
// parser or storage schema that produce them.
package rpsl

// ObjectClass discriminates the RPSL object classes the core reasons about.
type ObjectClass string

const (
	ClassMntner    ObjectClass = "mntner"
	ClassPerson    ObjectClass = "person"
	ClassRole      ObjectClass = "role"
	ClassRoute     ObjectClass = "route"
	ClassRoute6    ObjectClass = "route6"
	ClassAutNum    ObjectClass = "aut-num"
	ClassInetnum   ObjectClass = "inetnum"
	ClassInet6num  ObjectClass = "inet6num"
	ClassASSet     ObjectClass = "as-set"
	ClassRouteSet  ObjectClass = "route-set"
	ClassRtrSet    ObjectClass = "rtr-set"
	ClassFilterSet ObjectClass = "filter-set"
	ClassPeerSet   ObjectClass = "peering-set"
)

// setClasses enumerates the object classes whose PK may carry an ASN segment.
var setClasses = map[ObjectClass]bool{
	ClassASSet:     true,
	ClassRouteSet:  true,
	ClassRtrSet:    true,
	ClassFilterSet: true,
	ClassPeerSet:   true,
}

// IsSetClass reports whether class is one of the RPSL "set" object classes.
func IsSetClass(class ObjectClass) bool {
	return setClasses[class]
}

// IsRouteClass reports whether class is route or route6.
func IsRouteClass(class ObjectClass) bool {
	return class == ClassRoute || class == ClassRoute6
}

// IsMntnerClass reports whether class is mntner.
func IsMntnerClass(class ObjectClass) bool {
	return class == ClassMntner
}

// StrongReference describes one outgoing strong reference field on an object:
// the attribute it came from, the object classes allowed to satisfy it, and
// the primary keys it names.
type StrongReference struct {
	Field          string
	AllowedClasses []ObjectClass
	PKs            []string
}

// InboundReferrer names an (object_class, attribute) pair that may hold a
// strong reference to this object's class.
type InboundReferrer struct {
	Class     ObjectClass
	Attribute string
}

// Object is the read-only capability set the validators need from any RPSL
// object, regardless of which concrete parser produced it.
type Object interface {
	// Class returns the object's class discriminator.
	Class() ObjectClass

	// PK returns the canonical primary key string.
	PK() string

	// Source returns the authoritative source/registry name.
	Source() string

	// Attribute returns the ordered values of a parsed_data attribute,
	// e.g. Attribute("mnt-by").
	Attribute(name string) []string

	// ReferredStrongObjects returns the object's outgoing strong references.
	ReferredStrongObjects() []StrongReference

	// ReferencesStrongInbound returns the (class, attribute) pairs that may
	// strongly reference this object's class. The list depends only on the
	// class, not on whether the object is being deleted; callers run the
	// inbound check for deletions only.
	ReferencesStrongInbound() []InboundReferrer

	// Text returns the object's serialized RPSL text, used only to surface
	// it unchanged in log lines; the core never re-parses it.
	Text() string
}

// MntnerKey identifies a maintainer by primary key within a source.
type MntnerKey struct {
	PK     string
	Source string
}
