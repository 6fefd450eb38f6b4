// Package cache provides the per-batch memoizing caches ReferenceValidator
// and AuthValidator hold: never shared across batches, never backed by a
// process-global store, since database state changes between batches.
package cache

import (
	"net/netip"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
)

// DefaultCapacity bounds each per-batch cache; a single submission batch
// rarely references more than a few hundred distinct objects, so this is
// generous headroom rather than a tight budget.
const DefaultCapacity = 4096

// ReferenceKey identifies a resolved strong-reference target by
// (class, pk, source): the same PK can legitimately resolve to different
// classes for two disjoint allowed-class queries, so the class is part of
// the key, not just a value stored alongside (pk, source).
type ReferenceKey struct {
	Class  rpsl.ObjectClass
	PK     string
	Source string
}

// ReferenceCache caches positive reference-resolution hits for one batch.
// It is never negatively cached: a miss must always be
// re-checked against the batch overlays and the database, since a later
// preload or late-arriving object can turn a miss into a hit. Positive
// hits are stable for the batch's lifetime. Because ReferenceKey carries
// the resolved class, a PK cached as resolving under one class never
// shadows a later, disjoint allowed-class query against the same
// (pk, source): that query simply misses and falls through to the
// overlay/database lookup chain instead of being answered from a
// different class's cache entry.
type ReferenceCache struct {
	hits *lru.Cache[ReferenceKey, struct{}]
}

// NewReferenceCache constructs an empty ReferenceCache.
func NewReferenceCache() *ReferenceCache {
	c, _ := lru.New[ReferenceKey, struct{}](DefaultCapacity)
	return &ReferenceCache{hits: c}
}

// Has reports whether key (a specific class, pk and source) was
// previously recorded as a resolved reference target.
func (c *ReferenceCache) Has(key ReferenceKey) bool {
	_, ok := c.hits.Get(key)
	return ok
}

// Put records that key resolved successfully.
func (c *ReferenceCache) Put(key ReferenceKey) {
	c.hits.Add(key, struct{}{})
}

// MntnerCache memoizes fetched-and-parsed maintainer objects by
// (pk, source) for a batch.
type MntnerCache struct {
	objects *lru.Cache[rpsl.MntnerKey, *rpsl.GenericMntner]
}

// NewMntnerCache constructs an empty MntnerCache.
func NewMntnerCache() *MntnerCache {
	c, _ := lru.New[rpsl.MntnerKey, *rpsl.GenericMntner](DefaultCapacity)
	return &MntnerCache{objects: c}
}

func (c *MntnerCache) Get(key rpsl.MntnerKey) (*rpsl.GenericMntner, bool) {
	return c.objects.Get(key)
}

func (c *MntnerCache) Put(key rpsl.MntnerKey, m *rpsl.GenericMntner) {
	c.objects.Add(key, m)
}

// RelatedObjectKey identifies a memoized related-object lookup: either a
// route prefix (for route/route6 parent lookups) or an (class, pk, source)
// tuple (for set-to-aut-num lookups).
type RelatedObjectKey struct {
	Class  rpsl.ObjectClass
	PK     string
	Source string
	Prefix netip.Prefix
}

// RelatedObjectCache memoizes AuthValidator's related-object resolution:
// an explicit per-batch map keyed by (object_class, pk, source) or by the
// route prefix string. Unlike ReferenceCache, a negative result (no
// related object found) is also memoized here: within one batch the
// database state the related-object lookup reads from does not change,
// and ReferenceCache's "never negatively cached" rule is scoped
// explicitly to reference resolution, not this lookup.
type RelatedObjectCache struct {
	found map[RelatedObjectKey]*rpsl.GenericObject
	known map[RelatedObjectKey]bool
}

// NewRelatedObjectCache constructs an empty RelatedObjectCache.
func NewRelatedObjectCache() *RelatedObjectCache {
	return &RelatedObjectCache{
		found: make(map[RelatedObjectKey]*rpsl.GenericObject),
		known: make(map[RelatedObjectKey]bool),
	}
}

// Get returns the memoized related object (nil if the memoized result was
// "not found") and whether key has been resolved before.
func (c *RelatedObjectCache) Get(key RelatedObjectKey) (*rpsl.GenericObject, bool) {
	if !c.known[key] {
		return nil, false
	}
	return c.found[key], true
}

// Put memoizes the resolution for key; obj may be nil to record "not found".
func (c *RelatedObjectCache) Put(key RelatedObjectKey, obj *rpsl.GenericObject) {
	c.known[key] = true
	c.found[key] = obj
}
