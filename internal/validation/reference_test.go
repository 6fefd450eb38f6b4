package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
	"github.com/irrdcore/rpslvalidate/internal/store"
)

func newRouteObject(pk string, mntBy ...string) *rpsl.GenericObject {
	return rpsl.NewGenericObject(rpsl.ClassRoute, pk, "TEST", map[string][]string{"mnt-by": mntBy}, "")
}

func TestReferenceValidatorMissingReference(t *testing.T) {
	st := store.NewMemoryStore()
	rv := NewReferenceValidator(st, nil)
	rv.Preload(nil)

	obj := newRouteObject("192.0.2.0/24", "GHOST-MNT")
	result, err := rv.CheckReferencesToOthers(context.Background(), obj)
	require.NoError(t, err)
	require.False(t, result.IsValid())
	assert.Contains(t, result.ErrorMessages()[0], "GHOST-MNT")
	assert.Contains(t, result.ErrorMessages()[0], "mnt-by")
}

func TestReferenceValidatorResolvesFromDatabase(t *testing.T) {
	st := store.NewMemoryStore()
	st.Objects = []store.ObjectRow{
		{Class: rpsl.ClassMntner, PK: "REAL-MNT", Source: "TEST"},
	}
	rv := NewReferenceValidator(st, nil)
	rv.Preload(nil)

	obj := newRouteObject("192.0.2.0/24", "REAL-MNT")
	result, err := rv.CheckReferencesToOthers(context.Background(), obj)
	require.NoError(t, err)
	assert.True(t, result.IsValid())
}

func TestReferenceValidatorPreloadedNewSatisfiesReference(t *testing.T) {
	st := store.NewMemoryStore()
	rv := NewReferenceValidator(st, nil)

	newMntner := rpsl.NewGenericObject(rpsl.ClassMntner, "NEW-MNT", "TEST", nil, "")
	route := newRouteObject("192.0.2.0/24", "NEW-MNT")
	rv.Preload([]rpsl.ChangeRequest{
		{Type: rpsl.Create, New: newMntner},
		{Type: rpsl.Create, New: route},
	})

	result, err := rv.CheckReferencesToOthers(context.Background(), route)
	require.NoError(t, err)
	assert.True(t, result.IsValid())
}

func TestReferenceValidatorPreloadedDeletedIsDefinitiveFailure(t *testing.T) {
	st := store.NewMemoryStore()
	st.Objects = []store.ObjectRow{
		{Class: rpsl.ClassMntner, PK: "DYING-MNT", Source: "TEST"},
	}
	rv := NewReferenceValidator(st, nil)

	dying := rpsl.NewGenericObject(rpsl.ClassMntner, "DYING-MNT", "TEST", nil, "")
	route := newRouteObject("192.0.2.0/24", "DYING-MNT")
	rv.Preload([]rpsl.ChangeRequest{
		{Type: rpsl.Delete, New: dying},
	})

	result, err := rv.CheckReferencesToOthers(context.Background(), route)
	require.NoError(t, err)
	require.False(t, result.IsValid())
	assert.Contains(t, result.ErrorMessages()[0], "being deleted in this batch")
}

func TestReferenceValidatorCacheHitAcrossCalls(t *testing.T) {
	st := store.NewMemoryStore()
	st.Objects = []store.ObjectRow{
		{Class: rpsl.ClassMntner, PK: "REAL-MNT", Source: "TEST"},
	}
	rv := NewReferenceValidator(st, nil)
	rv.Preload(nil)

	route1 := newRouteObject("192.0.2.0/24", "REAL-MNT")
	route2 := newRouteObject("198.51.100.0/24", "REAL-MNT")

	_, err := rv.CheckReferencesToOthers(context.Background(), route1)
	require.NoError(t, err)

	st.Objects = nil // cache must not need the db again

	result, err := rv.CheckReferencesToOthers(context.Background(), route2)
	require.NoError(t, err)
	assert.True(t, result.IsValid())
}

func personObject(pk string) *rpsl.GenericObject {
	return rpsl.NewGenericObject(rpsl.ClassPerson, pk, "TEST", nil, "")
}

func TestReferenceValidatorFromOthersReportsLiveReferrer(t *testing.T) {
	st := store.NewMemoryStore()
	st.Objects = []store.ObjectRow{
		{Class: rpsl.ClassRole, PK: "X-ROLE", Source: "TEST", Attributes: map[string][]string{"admin-c": {"JOE"}}},
	}
	rv := NewReferenceValidator(st, nil)
	rv.Preload(nil)

	joe := personObject("JOE")
	result, err := rv.CheckReferencesFromOthers(context.Background(), joe)
	require.NoError(t, err)
	require.False(t, result.IsValid())
	assert.Contains(t, result.ErrorMessages()[0], "JOE")
	assert.Contains(t, result.ErrorMessages()[0], "role X-ROLE")
}

func TestReferenceValidatorFromOthersDeleteSymmetry(t *testing.T) {
	st := store.NewMemoryStore()
	st.Objects = []store.ObjectRow{
		{Class: rpsl.ClassRole, PK: "X-ROLE", Source: "TEST", Attributes: map[string][]string{"admin-c": {"JOE"}}},
	}
	rv := NewReferenceValidator(st, nil)

	joe := personObject("JOE")
	roleX := rpsl.NewGenericObject(rpsl.ClassRole, "X-ROLE", "TEST", map[string][]string{"admin-c": {"JOE"}}, "")
	rv.Preload([]rpsl.ChangeRequest{
		{Type: rpsl.Delete, New: joe},
		{Type: rpsl.Delete, New: roleX},
	})

	result, err := rv.CheckReferencesFromOthers(context.Background(), joe)
	require.NoError(t, err)
	assert.True(t, result.IsValid())
}
