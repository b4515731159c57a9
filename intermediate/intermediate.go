// Package intermediate implements the caching intermediate tier of a
// replication tree: it terminates downstream requests locally when
// possible, proxies to its own upstream otherwise, and stays current with
// upstream via the child-version pull protocol. Grounded on
// original_source/src/cachingintermediate.rs.
package intermediate

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/djmitche/dsr"
)

// defaultWindow is the recommended downstream-serving / notice-poll window
// from spec.md §4.5.
const defaultWindow = 10 * time.Millisecond

// negativeCacheSentinel is the value stored for a known miss; its presence,
// not its content, is what matters.
type negativeCacheSentinel struct{}

// Intermediate caches versions seen from upstream and serves downstream
// requests from that cache whenever possible.
type Intermediate struct {
	name       string
	upstream   *dsr.Upstream
	downstream *dsr.Downstream
	db         dsr.ServerDb
	log        *logrus.Entry
	window     time.Duration
	negCache   *gocache.Cache // nil unless WithNegativeCache is given
	metrics    dsr.Metrics
}

// Option configures an Intermediate at construction time.
type Option func(*Intermediate)

// WithWindow overrides the serving/notice-poll window (default 10ms).
func WithWindow(d time.Duration) Option {
	return func(m *Intermediate) { m.window = d }
}

// WithMetrics reports cache hits/misses and proxied-request counts to m.
func WithMetrics(metrics dsr.Metrics) Option {
	return func(m *Intermediate) { m.metrics = metrics }
}

// WithNegativeCache enables negative caching of GetChildVersion misses, a
// documented TODO in spec.md §4.5/§9 left disabled by default. Every
// negative entry is invalidated (the whole negative cache flushed) on each
// received NewVersion notice, so a later-arriving version is never masked
// by a stale miss.
func WithNegativeCache() Option {
	return func(m *Intermediate) {
		m.negCache = gocache.New(gocache.NoExpiration, gocache.NoExpiration)
	}
}

// New returns an Intermediate named name, fetching its upstream handle from
// up. db is typically freshly created with dsr.NewServerDb.
func New(name string, up *dsr.Upstream, db dsr.ServerDb, opts ...Option) *Intermediate {
	m := &Intermediate{
		name:       name,
		upstream:   up,
		db:         db,
		log:        logrus.WithFields(logrus.Fields{"name": name, "component": "intermediate"}),
		window:     defaultWindow,
		metrics:    dsr.NopMetrics{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.downstream = dsr.NewDownstream(m.metrics)
	return m
}

// MakeUpstream returns a new Upstream handle for a child node of this
// intermediate.
func (m *Intermediate) MakeUpstream() *dsr.Upstream {
	return m.downstream.MakeUpstream()
}

// Run fetches a startup snapshot from upstream, applies it, then serves and
// stays current forever. This is the only time the intermediate replaces
// its data wholesale.
func (m *Intermediate) Run() error {
	m.log.Infof("getting snapshot")
	snapshot := m.upstream.GetSnapshot()
	m.log.Infof("starting at snapshot version %s", snapshot.VersionId)
	m.db.ApplySnapshot(snapshot)

	for {
		m.downstream.ServeFor(m.window, m.handleRequest)

		if m.upstream.Wait(m.window) {
			m.log.Infof("updating to latest")
			if m.negCache != nil {
				m.negCache.Flush()
			}
			dsr.PullChain(m.upstream, m.db, m.log)

			m.log.Infof("sending new-version notice")
			m.downstream.Notify()
		}
	}
}

func (m *Intermediate) handleRequest(req dsr.Request) {
	switch r := req.(type) {
	case dsr.GetSnapshotRequest:
		// Always answer from the intermediate's own ServerDb, never
		// proxy: spec.md §4.5 says GetSnapshot is never deferred
		// upstream.
		r.Reply <- m.db.GetSnapshot()

	case dsr.GetChildVersionRequest:
		r.Reply <- m.resolveChildVersion(r.ParentVersionId)
	}
}

func (m *Intermediate) resolveChildVersion(parent dsr.VersionId) *dsr.Version {
	if v := m.db.GetChildVersion(parent); v != nil {
		m.metrics.CacheHit()
		return v
	}
	m.metrics.CacheMiss()

	current := m.db.CurrentVersionId()
	if m.negCache != nil {
		if parent == current {
			if _, known := m.negCache.Get(parent.String()); known {
				return nil
			}
		}
	}

	// Cache miss locally: proxy to our own upstream, asking for the
	// child of *our* current version, not the caller's requested parent
	// (spec.md §4.5).
	m.metrics.RequestProxied()
	v := m.upstream.GetChildVersion(current)

	if v == nil {
		if m.negCache != nil && parent == current {
			m.negCache.Set(parent.String(), negativeCacheSentinel{}, gocache.NoExpiration)
		}
		return nil
	}

	// Open question resolved (spec.md §9, option (a)): only cache the
	// reply under the caller's requested parent when that parent is
	// actually the intermediate's own current, since that's the only
	// case where parent == v's true parent. Otherwise the cached
	// mapping parent -> v would be wrong, so skip caching and just
	// return the proxied answer.
	if parent == current {
		m.db.CacheVersion(parent, *v)
	} else {
		m.log.Debugf("not caching proxied reply: requested parent %s != current %s", parent, current)
	}
	return v
}
