package rpsl

// fieldSpec names one attribute that carries strong references and the
// object classes allowed to satisfy it.
type fieldSpec struct {
	field          string
	allowedClasses []ObjectClass
}

// referenceSchema is the (minimal but representative) strong-reference
// schema this core knows about: every object class delegates authority via
// mnt-by, and every class except mntner and person also names contacts via
// admin-c/tech-c. The full IRRd attribute
// schema carries more per-class attributes (e.g. mnt-lower, mnt-routes,
// zone-c, members); those are out of scope for the validation core, which
// only needs to resolve references, not enumerate every RPSL attribute.
var referenceSchema = map[ObjectClass][]fieldSpec{
	ClassMntner:    {{"mnt-by", []ObjectClass{ClassMntner}}},
	ClassPerson:    {{"mnt-by", []ObjectClass{ClassMntner}}},
	ClassRole:      {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassRoute:     {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassRoute6:    {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassAutNum:    {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassInetnum:   {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassInet6num:  {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassASSet:     {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassRouteSet:  {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassRtrSet:    {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassFilterSet: {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
	ClassPeerSet:   {{"mnt-by", []ObjectClass{ClassMntner}}, {"admin-c", []ObjectClass{ClassPerson, ClassRole}}, {"tech-c", []ObjectClass{ClassPerson, ClassRole}}},
}

// inboundIndex is the reverse of referenceSchema: for a target class, which
// (class, attribute) pairs may strongly reference it. Built once at
// package init, since the schema above is static.
var inboundIndex = buildInboundIndex()

func buildInboundIndex() map[ObjectClass][]InboundReferrer {
	idx := make(map[ObjectClass][]InboundReferrer)
	for class, fields := range referenceSchema {
		for _, f := range fields {
			for _, allowed := range f.allowedClasses {
				idx[allowed] = append(idx[allowed], InboundReferrer{Class: class, Attribute: f.field})
			}
		}
	}
	return idx
}

// strongReferencesFor builds the outgoing StrongReference list for an
// object of class class given its attribute accessor.
func strongReferencesFor(class ObjectClass, attr func(string) []string) []StrongReference {
	fields := referenceSchema[class]
	var refs []StrongReference
	for _, f := range fields {
		pks := attr(f.field)
		if len(pks) == 0 {
			continue
		}
		refs = append(refs, StrongReference{Field: f.field, AllowedClasses: f.allowedClasses, PKs: pks})
	}
	return refs
}

// inboundReferrersFor returns the (class, attribute) pairs that may strongly
// reference an object of class class.
func inboundReferrersFor(class ObjectClass) []InboundReferrer {
	return inboundIndex[class]
}
