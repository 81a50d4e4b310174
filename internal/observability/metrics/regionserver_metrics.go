package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegionServerCollector exposes the region server's own load and queue
// diagnostics, following ClusterCollector's promauto.With(reg)-builder
// pattern with a different namespace and metric set.
type RegionServerCollector struct {
	requestCount     prometheus.Gauge
	onlineRegions    prometheus.Gauge
	memtableBytes    prometheus.Gauge
	flushQueueDepth  prometheus.Gauge
	compactQueueDepth prometheus.Gauge
	heartbeatFailures prometheus.Gauge
	openScanners     prometheus.Gauge
}

// NewRegionServerCollector creates a collector registered on reg (the
// default registerer if nil).
func NewRegionServerCollector(reg prometheus.Registerer, namespace string) *RegionServerCollector {
	if namespace == "" {
		namespace = "regionserver"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	builder := promauto.With(reg)
	return &RegionServerCollector{
		requestCount: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "request_count",
			Help:      "Requests served since the last heartbeat.",
		}),
		onlineRegions: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_region_count",
			Help:      "Regions currently in the online map.",
		}),
		memtableBytes: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memtable_bytes_total",
			Help:      "Sum of memtable sizes across online regions.",
		}),
		flushQueueDepth: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flush_queue_depth",
			Help:      "Regions currently queued for flush.",
		}),
		compactQueueDepth: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "compact_queue_depth",
			Help:      "Regions currently queued for compaction.",
		}),
		heartbeatFailures: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heartbeat_consecutive_failures",
			Help:      "Consecutive failed master heartbeats.",
		}),
		openScanners: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_scanner_count",
			Help:      "Currently open scanners.",
		}),
	}
}

func (c *RegionServerCollector) SetRequestCount(n int64)     { c.requestCount.Set(float64(n)) }
func (c *RegionServerCollector) SetOnlineRegions(n int)      { c.onlineRegions.Set(float64(n)) }
func (c *RegionServerCollector) SetMemtableBytes(n int64)    { c.memtableBytes.Set(float64(n)) }
func (c *RegionServerCollector) SetFlushQueueDepth(n int)    { c.flushQueueDepth.Set(float64(n)) }
func (c *RegionServerCollector) SetCompactQueueDepth(n int)  { c.compactQueueDepth.Set(float64(n)) }
func (c *RegionServerCollector) SetHeartbeatFailures(n int)  { c.heartbeatFailures.Set(float64(n)) }
func (c *RegionServerCollector) SetOpenScanners(n int)       { c.openScanners.Set(float64(n)) }
