package dsr

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of counters a ServerDb and NoticeBus report into. A nil
// Metrics is never passed to library internals directly; NewServerDb and
// NewNoticeBus substitute NopMetrics so callers that don't care about
// observability never need a nil check.
type Metrics interface {
	VersionApplied()
	VersionCached()
	SnapshotServed()
	SnapshotApplied()
	RequestProxied()
	CacheHit()
	CacheMiss()
	NoticeBroadcast()
	NoticeDropped()
}

func noopIfNil(m Metrics) Metrics {
	if m == nil {
		return NopMetrics{}
	}
	return m
}

// NopMetrics discards every observation. It is the default for nodes built
// without an admin server.
type NopMetrics struct{}

func (NopMetrics) VersionApplied()   {}
func (NopMetrics) VersionCached()    {}
func (NopMetrics) SnapshotServed()   {}
func (NopMetrics) SnapshotApplied()  {}
func (NopMetrics) RequestProxied()   {}
func (NopMetrics) CacheHit()         {}
func (NopMetrics) CacheMiss()        {}
func (NopMetrics) NoticeBroadcast()  {}
func (NopMetrics) NoticeDropped()    {}

// PrometheusMetrics implements Metrics on top of client_golang counters,
// registered under the "dsr" namespace (spec.md §4.7). A fresh instance
// is created per node; sibling nodes in the same process may share one
// prometheus.Registry (as the demo harness does, see pkg/admin), since each
// instance's counters carry the node's name as a "node" const label.
// Registering two instances with the same node name on one Registry panics.
type PrometheusMetrics struct {
	versionsApplied  prometheus.Counter
	versionsCached   prometheus.Counter
	snapshotsServed  prometheus.Counter
	snapshotsApplied prometheus.Counter
	requestsProxied  prometheus.Counter
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	noticesBroadcast prometheus.Counter
	noticesDropped   prometheus.Counter
}

// NewPrometheusMetrics builds and registers the dsr counters for one node,
// labeled with that node's name, on reg.
func NewPrometheusMetrics(reg prometheus.Registerer, nodeName string) *PrometheusMetrics {
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "dsr",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"node": nodeName},
		})
		reg.MustRegister(c)
		return c
	}

	return &PrometheusMetrics{
		versionsApplied:  counter("versions_applied_total", "Versions applied to this node's ServerDb."),
		versionsCached:   counter("versions_cached_total", "Versions cached without advancing current."),
		snapshotsServed:  counter("snapshots_served_total", "GetSnapshot requests answered."),
		snapshotsApplied: counter("snapshots_applied_total", "Snapshots applied wholesale to this node's ServerDb."),
		requestsProxied:  counter("requests_proxied_total", "GetChildVersion requests proxied to upstream."),
		cacheHits:        counter("cache_hits_total", "GetChildVersion requests answered from local cache."),
		cacheMisses:      counter("cache_misses_total", "GetChildVersion requests that missed local cache."),
		noticesBroadcast: counter("notices_broadcast_total", "NewVersion notices broadcast to downstream."),
		noticesDropped:   counter("notices_dropped_total", "NewVersion notices dropped for a slow subscriber."),
	}
}

func (m *PrometheusMetrics) VersionApplied()   { m.versionsApplied.Inc() }
func (m *PrometheusMetrics) VersionCached()    { m.versionsCached.Inc() }
func (m *PrometheusMetrics) SnapshotServed()   { m.snapshotsServed.Inc() }
func (m *PrometheusMetrics) SnapshotApplied()  { m.snapshotsApplied.Inc() }
func (m *PrometheusMetrics) RequestProxied()   { m.requestsProxied.Inc() }
func (m *PrometheusMetrics) CacheHit()         { m.cacheHits.Inc() }
func (m *PrometheusMetrics) CacheMiss()        { m.cacheMisses.Inc() }
func (m *PrometheusMetrics) NoticeBroadcast()  { m.noticesBroadcast.Inc() }
func (m *PrometheusMetrics) NoticeDropped()    { m.noticesDropped.Inc() }
