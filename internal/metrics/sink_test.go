package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcc/restaurant-services/internal/metrics"
)

func TestPrometheusSink_Inc(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheus("order", reg)

	sink.Inc("products_total", nil, 3)
	sink.Inc("products_total", nil, 1)

	sink.Inc("product_details_total", map[string]string{
		"product_id":   "10",
		"product_name": "Coxinha (10)",
		"quantity":     "2",
	}, 2)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64, len(families))
	for _, f := range families {
		values[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
	}
	assert.Equal(t, float64(4), values["order_products_total"], "namespaced and summed")
	assert.Equal(t, float64(2), values["order_product_details_total"])
}

func TestPrometheusSink_LabeledSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheus("order", reg)

	labels := map[string]string{
		"pair":        "Coxinha (10) - Pastel (11)",
		"product1_id": "10",
		"product2_id": "11",
	}
	sink.Inc("product_combinations_total", labels, 1)
	sink.Inc("product_combinations_total", labels, 1)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)

	series := families[0].GetMetric()
	require.Len(t, series, 1)
	assert.Equal(t, float64(2), series[0].GetCounter().GetValue())
	assert.Len(t, series[0].GetLabel(), 3)
}

func TestPrometheusSink_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheus("order", reg)

	sink.Observe("save_duration_seconds", nil, 150*time.Millisecond)
	sink.Observe("save_duration_seconds", nil, 250*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)

	hist := families[0].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.4, hist.GetSampleSum(), 1e-9)
}
