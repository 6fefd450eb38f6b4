package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestObserveRequestIncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	v := NewValidator(reg)

	v.ObserveRequest("route", "create", false, false, "reference-missing")
	v.ObserveRequest("mntner", "create", true, true, "")

	families, err := reg.Gather()
	require.NoError(t, err)

	var sawFailure, sawOverride bool
	for _, mf := range families {
		if mf.GetName() == "rpslvalidate_failures_total" {
			for _, m := range mf.Metric {
				if m.GetCounter().GetValue() == float64(1) {
					sawFailure = true
				}
			}
		}
		if mf.GetName() == "rpslvalidate_override_used_total" {
			for _, m := range mf.Metric {
				if m.GetCounter().GetValue() == float64(1) {
					sawOverride = true
				}
			}
		}
	}
	require.True(t, sawFailure)
	require.True(t, sawOverride)
}
