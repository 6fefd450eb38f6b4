package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
	"github.com/irrdcore/rpslvalidate/internal/store"
)

func TestRulesValidatorSuspendedCollision(t *testing.T) {
	st := store.NewMemoryStore()
	st.Suspended = []store.ObjectRow{
		{Class: rpsl.ClassMntner, PK: "OLD-MNT", Source: "TEST"},
	}
	rv := NewRulesValidator(st, st, nil)

	newMntner := rpsl.NewGenericObject(rpsl.ClassMntner, "OLD-MNT", "TEST", nil, "")
	result, err := rv.Check(context.Background(), rpsl.ChangeRequest{Type: rpsl.Create, New: newMntner})
	require.NoError(t, err)
	require.False(t, result.IsValid())
	assert.Contains(t, result.ErrorMessages()[0], "suspended")
}

func TestRulesValidatorNoCollisionWhenNotSuspended(t *testing.T) {
	st := store.NewMemoryStore()
	rv := NewRulesValidator(st, st, nil)

	newMntner := rpsl.NewGenericObject(rpsl.ClassMntner, "FRESH-MNT", "TEST", nil, "")
	result, err := rv.Check(context.Background(), rpsl.ChangeRequest{Type: rpsl.Create, New: newMntner})
	require.NoError(t, err)
	assert.True(t, result.IsValid())
}

func TestRulesValidatorMigrationMismatchMissingSentinel(t *testing.T) {
	st := store.NewMemoryStore()
	st.Migrated[rpsl.MntnerKey{PK: "MIG-MNT", Source: "TEST"}] = true
	rv := NewRulesValidator(st, st, nil)

	obj := rpsl.NewGenericObject(rpsl.ClassMntner, "MIG-MNT", "TEST", nil, "")
	mntner := rpsl.NewGenericMntner(obj, []string{"BCRYPT-PW somehash"})

	result, err := rv.Check(context.Background(), rpsl.ChangeRequest{Type: rpsl.Modify, New: mntner})
	require.NoError(t, err)
	require.False(t, result.IsValid())
	assert.Contains(t, result.ErrorMessages()[0], rpsl.InternalAuthSentinel)
}

func TestRulesValidatorMigrationMismatchUnexpectedSentinel(t *testing.T) {
	st := store.NewMemoryStore()
	rv := NewRulesValidator(st, st, nil)

	obj := rpsl.NewGenericObject(rpsl.ClassMntner, "NOT-MIGRATED-MNT", "TEST", nil, "")
	mntner := rpsl.NewGenericMntner(obj, []string{rpsl.InternalAuthSentinel})

	result, err := rv.Check(context.Background(), rpsl.ChangeRequest{Type: rpsl.Modify, New: mntner})
	require.NoError(t, err)
	require.False(t, result.IsValid())
	assert.Contains(t, result.ErrorMessages()[0], rpsl.InternalAuthSentinel)
}

func TestRulesValidatorMigrationMemoizedPerBatch(t *testing.T) {
	st := store.NewMemoryStore()
	rv := NewRulesValidator(st, st, nil)

	obj := rpsl.NewGenericObject(rpsl.ClassMntner, "OK-MNT", "TEST", nil, "")
	mntner := rpsl.NewGenericMntner(obj, nil)

	_, err := rv.Check(context.Background(), rpsl.ChangeRequest{Type: rpsl.Modify, New: mntner})
	require.NoError(t, err)

	key := rpsl.MntnerKey{PK: "OK-MNT", Source: "TEST"}
	_, cached := rv.migrationChecked[key]
	assert.True(t, cached)
}
