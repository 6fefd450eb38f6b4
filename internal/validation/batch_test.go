package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
	"github.com/irrdcore/rpslvalidate/internal/store"
)

func newBatchRunner(st *store.MemoryStore, cfg AuthConfig) *BatchRunner {
	reference := NewReferenceValidator(st, nil)
	auth := NewAuthValidator(st, st, cfg, nil)
	rules := NewRulesValidator(st, st, nil)
	return NewBatchRunner(reference, auth, rules, nil)
}

func TestBatchRunnerPreApprovalWithOverride(t *testing.T) {
	st := store.NewMemoryStore()
	br := newBatchRunner(st, AuthConfig{AuthenticateParentsRouteCreation: true})

	newMntner := rpsl.NewGenericObject(rpsl.ClassMntner, "NEW-MNT", "TEST", map[string][]string{"mnt-by": {"NEW-MNT"}}, "")
	route := rpsl.NewGenericObject(rpsl.ClassRoute, "192.0.2.0/24", "TEST", map[string][]string{"mnt-by": {"NEW-MNT"}}, "")

	requests := []rpsl.ChangeRequest{
		{Type: rpsl.Create, New: route},
		{Type: rpsl.Create, New: newMntner},
	}
	creds := rpsl.Credentials{InternalUser: &rpsl.InternalUser{Override: true}}

	results, err := br.Run(context.Background(), requests, creds)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Result.IsValid(), "request for %s should be valid: %v", r.Request.New.PK(), r.Result.ErrorMessages())
	}
}

func TestBatchRunnerOrderIndependence(t *testing.T) {
	st := store.NewMemoryStore()
	cfg := AuthConfig{AuthenticateParentsRouteCreation: true}

	newMntner := rpsl.NewGenericObject(rpsl.ClassMntner, "NEW-MNT", "TEST", map[string][]string{"mnt-by": {"NEW-MNT"}}, "")
	route := rpsl.NewGenericObject(rpsl.ClassRoute, "192.0.2.0/24", "TEST", map[string][]string{"mnt-by": {"NEW-MNT"}}, "")
	creds := rpsl.Credentials{InternalUser: &rpsl.InternalUser{Override: true}}

	orderA := []rpsl.ChangeRequest{
		{Type: rpsl.Create, New: route},
		{Type: rpsl.Create, New: newMntner},
	}
	orderB := []rpsl.ChangeRequest{
		{Type: rpsl.Create, New: newMntner},
		{Type: rpsl.Create, New: route},
	}

	brA := newBatchRunner(st, cfg)
	resultsA, err := brA.Run(context.Background(), orderA, creds)
	require.NoError(t, err)

	brB := newBatchRunner(st, cfg)
	resultsB, err := brB.Run(context.Background(), orderB, creds)
	require.NoError(t, err)

	validityA := make(map[string]bool)
	for _, r := range resultsA {
		validityA[r.Request.New.PK()] = r.Result.IsValid()
	}
	validityB := make(map[string]bool)
	for _, r := range resultsB {
		validityB[r.Request.New.PK()] = r.Result.IsValid()
	}
	assert.Equal(t, validityA, validityB)
}

func TestBatchRunnerFailedNewMntnerDoesNotPreApproveSiblings(t *testing.T) {
	st := store.NewMemoryStore()
	br := newBatchRunner(st, AuthConfig{AuthenticateParentsRouteCreation: true})

	newMntner := rpsl.NewGenericObject(rpsl.ClassMntner, "NEW-MNT", "TEST", map[string][]string{"mnt-by": {"NEW-MNT"}}, "")
	route := rpsl.NewGenericObject(rpsl.ClassRoute, "192.0.2.0/24", "TEST", map[string][]string{"mnt-by": {"NEW-MNT"}}, "")

	requests := []rpsl.ChangeRequest{
		{Type: rpsl.Create, New: route},
		{Type: rpsl.Create, New: newMntner},
	}

	// No override supplied: the new mntner request must fail its own
	// authentication (an administrator is required), so it must not be
	// pre-approved for the sibling route's mnt-by check.
	results, err := br.Run(context.Background(), requests, rpsl.Credentials{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byPK := make(map[string]*ValidatorResult, len(results))
	for _, r := range results {
		byPK[r.Request.New.PK()] = r.Result
	}

	assert.False(t, byPK["NEW-MNT"].IsValid())
	assert.False(t, byPK["192.0.2.0/24"].IsValid())
}

func TestBatchRunnerDeleteWithDanglingReference(t *testing.T) {
	st := store.NewMemoryStore()
	st.Objects = []store.ObjectRow{
		{Class: rpsl.ClassRole, PK: "X-ROLE", Source: "TEST", Attributes: map[string][]string{"admin-c": {"JOE"}, "mnt-by": {"ROLE-MNT"}}},
		{Class: rpsl.ClassMntner, PK: "ROLE-MNT", Source: "TEST"},
	}
	br := newBatchRunner(st, AuthConfig{AuthenticateParentsRouteCreation: true})

	joe := rpsl.NewGenericObject(rpsl.ClassPerson, "JOE", "TEST", nil, "")
	creds := rpsl.Credentials{InternalUser: &rpsl.InternalUser{Override: true}}

	results, err := br.Run(context.Background(), []rpsl.ChangeRequest{{Type: rpsl.Delete, New: joe}}, creds)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Result.IsValid())
	assert.Contains(t, results[0].Result.ErrorMessages()[0], "still referenced")
}
