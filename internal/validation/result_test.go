package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
)

func TestValidatorResultIsValid(t *testing.T) {
	r := NewValidatorResult()
	assert.True(t, r.IsValid())

	r.AddError("boom")
	assert.False(t, r.IsValid())
}

func TestValidatorResultDeduplicatesPreservesOrder(t *testing.T) {
	r := NewValidatorResult()
	r.AddError("first")
	r.AddError("second")
	r.AddError("first")

	require.Equal(t, []string{"first", "second"}, r.ErrorMessages())
}

func TestValidatorResultNotifyDeduplicates(t *testing.T) {
	r := NewValidatorResult()
	a := rpsl.NewGenericObject(rpsl.ClassMntner, "A-MNT", "TEST", nil, "")
	b := rpsl.NewGenericObject(rpsl.ClassMntner, "B-MNT", "TEST", nil, "")
	ma := rpsl.NewGenericMntner(a, nil)
	mb := rpsl.NewGenericMntner(b, nil)

	r.SetNotify([]rpsl.Mntner{ma, mb, ma})

	require.Len(t, r.Notify(), 2)
	assert.Equal(t, "A-MNT", r.Notify()[0].PK())
	assert.Equal(t, "B-MNT", r.Notify()[1].PK())
}

func TestValidatorResultMerge(t *testing.T) {
	a := NewValidatorResult()
	a.AddError("err-a")
	a.AddInfo("info-a")

	b := NewValidatorResult()
	b.AddError("err-b")
	b.MarkOverrideUsed()

	a.Merge(b)

	assert.Equal(t, []string{"err-a", "err-b"}, a.ErrorMessages())
	assert.Equal(t, []string{"info-a"}, a.InfoMessages())
	assert.True(t, a.UsedOverride())
}
