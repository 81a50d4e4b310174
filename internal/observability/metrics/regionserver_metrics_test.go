package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found among %d families", name, len(mfs))
	return 0
}

func TestNewRegionServerCollector_RegistersEveryGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewRegionServerCollector(reg, "rs_test")

	c.SetRequestCount(7)
	c.SetOnlineRegions(3)
	c.SetMemtableBytes(4096)
	c.SetFlushQueueDepth(2)
	c.SetCompactQueueDepth(1)
	c.SetHeartbeatFailures(5)
	c.SetOpenScanners(9)

	assert.Equal(t, float64(7), gaugeValue(t, reg, "rs_test_request_count"))
	assert.Equal(t, float64(3), gaugeValue(t, reg, "rs_test_online_region_count"))
	assert.Equal(t, float64(4096), gaugeValue(t, reg, "rs_test_memtable_bytes_total"))
	assert.Equal(t, float64(2), gaugeValue(t, reg, "rs_test_flush_queue_depth"))
	assert.Equal(t, float64(1), gaugeValue(t, reg, "rs_test_compact_queue_depth"))
	assert.Equal(t, float64(5), gaugeValue(t, reg, "rs_test_heartbeat_consecutive_failures"))
	assert.Equal(t, float64(9), gaugeValue(t, reg, "rs_test_open_scanner_count"))
}

func TestNewRegionServerCollector_DefaultsNamespaceWhenEmpty(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewRegionServerCollector(reg, "")
	c.SetRequestCount(1)

	assert.Equal(t, float64(1), gaugeValue(t, reg, "regionserver_request_count"))
}

func TestNewRegionServerCollector_SettersOverwritePreviousValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewRegionServerCollector(reg, "rs_test")

	c.SetOnlineRegions(3)
	c.SetOnlineRegions(1)
	assert.Equal(t, float64(1), gaugeValue(t, reg, "rs_test_online_region_count"))
}
