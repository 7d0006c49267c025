package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	require.NotNil(t, m)

	m.ObserveTurn()
	m.ObserveExtraction("merged")
	m.ObserveExtraction("rejected")
	m.ObserveTransition("greeting", "extracting_entities")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["clinic_booking_turns_total"])
	assert.True(t, names["clinic_booking_extractions_total"])
	assert.True(t, names["clinic_booking_state_transitions_total"])
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *BookingMetrics
	assert.NotPanics(t, func() {
		m.ObserveTurn()
		m.ObserveExtraction("merged")
		m.ObserveTransition("a", "b")
	})
}
