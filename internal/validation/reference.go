package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/irrdcore/rpslvalidate/internal/cache"
	"github.com/irrdcore/rpslvalidate/internal/rpsl"
	"github.com/irrdcore/rpslvalidate/internal/store"
)

// refKey identifies one object by (class, pk, source), the granularity the
// batch overlays and the reference cache key on.
type refKey struct {
	Class  rpsl.ObjectClass
	PK     string
	Source string
}

// ReferenceValidator checks that an object's outgoing strong references
// resolve to something that exists (or will exist) by the end of the
// batch, and that deleting an object does not strand anything still
// pointing at it. One instance is scoped to a single submission batch:
// its caches and overlays must not survive past it.
type ReferenceValidator struct {
	store  store.ObjectStore
	cache  *cache.ReferenceCache
	logger *slog.Logger

	preloadedNew     map[refKey]bool
	preloadedDeleted map[refKey]bool
}

// NewReferenceValidator constructs a ReferenceValidator over objStore. Call
// Preload once with the batch's requests before checking any object.
func NewReferenceValidator(objStore store.ObjectStore, logger *slog.Logger) *ReferenceValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceValidator{
		store:            objStore,
		cache:            cache.NewReferenceCache(),
		logger:           logger,
		preloadedNew:     make(map[refKey]bool),
		preloadedDeleted: make(map[refKey]bool),
	}
}

// Preload records, for every request in the batch, whether its object is
// being created/modified (a candidate reference target even before it
// hits the database) or deleted (a reference target that is disappearing,
// regardless of what the database currently says). Later requests in the
// same batch may therefore satisfy earlier ones' references, and vice
// versa — resolution does not depend on submission order.
func (rv *ReferenceValidator) Preload(requests []rpsl.ChangeRequest) {
	rv.preloadedNew = make(map[refKey]bool)
	rv.preloadedDeleted = make(map[refKey]bool)
	for _, req := range requests {
		key := refKey{Class: req.New.Class(), PK: req.New.PK(), Source: req.New.Source()}
		if req.Type == rpsl.Delete {
			rv.preloadedDeleted[key] = true
		} else {
			rv.preloadedNew[key] = true
		}
	}
}

// CheckReferencesToOthers verifies every strong reference obj makes
// outward resolves to an existing (or batch-pending) object of an
// acceptable class.
func (rv *ReferenceValidator) CheckReferencesToOthers(ctx context.Context, obj rpsl.Object) (*ValidatorResult, error) {
	result := NewValidatorResult()
	for _, ref := range obj.ReferredStrongObjects() {
		for _, pk := range ref.PKs {
			resolved, reason, err := rv.resolve(ctx, ref.AllowedClasses, pk, obj.Source())
			if err != nil {
				return nil, err
			}
			if !resolved {
				result.AddError(missingReferenceMessage(ref.Field, ref.AllowedClasses, pk, obj.Source(), reason))
			}
		}
	}
	return result, nil
}

// CheckReferencesFromOthers is only meaningful for a DELETE: it verifies
// nothing still strongly references obj, unless that referrer is itself
// being deleted in the same batch.
func (rv *ReferenceValidator) CheckReferencesFromOthers(ctx context.Context, obj rpsl.Object) (*ValidatorResult, error) {
	result := NewValidatorResult()
	referrers := obj.ReferencesStrongInbound()
	if len(referrers) == 0 {
		return result, nil
	}
	rows, err := rv.store.FindReferencingObjects(ctx, obj.Source(), referrers, obj.PK())
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		key := refKey{Class: row.Class, PK: row.PK, Source: row.Source}
		if rv.preloadedDeleted[key] {
			continue
		}
		result.AddError(fmt.Sprintf(
			"Object %s to be deleted, but still referenced by %s %s", obj.PK(), row.Class, row.PK,
		))
	}
	return result, nil
}

// resolve looks up pk against the batch overlays and the cache before
// falling back to the database, in that fixed order: cache -> preloaded
// new (success) -> preloaded deleted (definitive failure) -> database.
func (rv *ReferenceValidator) resolve(ctx context.Context, allowedClasses []rpsl.ObjectClass, pk, source string) (resolved bool, reason string, err error) {
	for _, class := range allowedClasses {
		if rv.cache.Has(cache.ReferenceKey{Class: class, PK: pk, Source: source}) {
			return true, "", nil
		}
	}

	for _, class := range allowedClasses {
		if rv.preloadedNew[refKey{Class: class, PK: pk, Source: source}] {
			rv.cache.Put(cache.ReferenceKey{Class: class, PK: pk, Source: source})
			return true, "", nil
		}
	}

	for _, class := range allowedClasses {
		if rv.preloadedDeleted[refKey{Class: class, PK: pk, Source: source}] {
			return false, "being deleted in this batch", nil
		}
	}

	rows, err := rv.store.FindObjects(ctx, store.ObjectQuery{
		Sources:   []string{source},
		Classes:   allowedClasses,
		PKs:       []string{pk},
		FirstOnly: true,
	})
	if err != nil {
		return false, "", err
	}
	if len(rows) == 0 {
		return false, "", nil
	}
	rv.cache.Put(cache.ReferenceKey{Class: rows[0].Class, PK: pk, Source: source})
	return true, "", nil
}

func missingReferenceMessage(field string, allowed []rpsl.ObjectClass, pk, source, reason string) string {
	classDesc := classDescription(allowed)
	if reason != "" {
		return fmt.Sprintf("Object %s referenced in field %q (source %s) as %s not found: %s", pk, field, source, classDesc, reason)
	}
	return fmt.Sprintf("Object %s referenced in field %q (source %s) as %s not found", pk, field, source, classDesc)
}

func classDescription(allowed []rpsl.ObjectClass) string {
	if len(allowed) == 1 {
		return string(allowed[0])
	}
	out := "one of ["
	for i, c := range allowed {
		if i > 0 {
			out += ", "
		}
		out += string(c)
	}
	return out + "]"
}
