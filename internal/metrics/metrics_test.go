package metrics_test

import (
	"testing"

	"github.com/nikolayk812/partyshop/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.CartPersisted("write", metrics.ResultOK)
		m.CartRestored(metrics.ResultOK)
		m.CartMutated("add", 1)
		m.IdentityChanged(true)
		m.AddressLookedUp(metrics.ResultNotFound)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.CartPersisted("write", metrics.ResultOK)
	m.CartPersisted("write", metrics.ResultOK)
	m.CartPersisted("delete", metrics.ResultError)
	m.CartMutated("add", 3)
	m.AddressLookedUp(metrics.ResultNotFound)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	assert.True(t, names["partyshop_cart_persist_total"])
	assert.True(t, names["partyshop_cart_items"])
	assert.True(t, names["partyshop_address_lookups_total"])

	count, err := testutil.GatherAndCount(m.Registry(), "partyshop_cart_persist_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per op/result pair")
}
