package rpsl

import "net/netip"

// GenericObject is a class-agnostic Object built from already-parsed
// attribute data, as returned by the store's RPSL object query (rows carry
// object_class, rpsl_pk, source, object_text, parsed_data — the core never
// re-tokenizes RPSL text). It satisfies Object directly and
// backs the more specific Mntner/SetObject/RouteObject wrappers below.
type GenericObject struct {
	class      ObjectClass
	pk         string
	source     string
	attributes map[string][]string
	text       string
}

// NewGenericObject constructs a GenericObject. attributes is taken as-is
// (not copied) and must not be mutated by the caller afterwards.
func NewGenericObject(class ObjectClass, pk, source string, attributes map[string][]string, text string) *GenericObject {
	return &GenericObject{class: class, pk: pk, source: source, attributes: attributes, text: text}
}

func (o *GenericObject) Class() ObjectClass { return o.class }
func (o *GenericObject) PK() string         { return o.pk }
func (o *GenericObject) Source() string     { return o.source }
func (o *GenericObject) Text() string       { return o.text }

func (o *GenericObject) Attribute(name string) []string {
	return o.attributes[name]
}

func (o *GenericObject) ReferredStrongObjects() []StrongReference {
	return strongReferencesFor(o.class, o.Attribute)
}

func (o *GenericObject) ReferencesStrongInbound() []InboundReferrer {
	return inboundReferrersFor(o.class)
}

// AsSetObject wraps o as a SetObject if o.Class() is a set class.
func (o *GenericObject) AsSetObject() (SetObject, bool) {
	if !IsSetClass(o.class) {
		return nil, false
	}
	return genericSetObject{o}, true
}

type genericSetObject struct{ *GenericObject }

func (s genericSetObject) PKASNSegment() (string, bool) { return ParsePKASNSegment(s.PK()) }

// AsRouteObject wraps o as a RouteObject if o.Class() is route/route6 and
// its PK parses as a CIDR prefix.
func (o *GenericObject) AsRouteObject() (RouteObject, bool) {
	if !IsRouteClass(o.class) {
		return nil, false
	}
	prefix, err := netip.ParsePrefix(o.pk)
	if err != nil {
		return nil, false
	}
	return genericRouteObject{o, prefix}, true
}

type genericRouteObject struct {
	*GenericObject
	prefix netip.Prefix
}

func (r genericRouteObject) Prefix() netip.Prefix { return r.prefix }
