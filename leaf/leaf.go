// Package leaf implements the debug leaf tier: a node that maintains a full
// materialised view for observation, never serves requests, and never
// broadcasts notices. Grounded on original_source/src/debugleaf.rs.
package leaf

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/djmitche/dsr"
)

// defaultWait is the recommended notice-wait timeout from spec.md §5; it
// exists purely for liveness (the leaf would otherwise never notice a
// notice it missed while not yet subscribed, or a broadcaster restart), not
// for correctness.
const defaultWait = time.Second

// Leaf consumes versions from upstream and materialises the full key/value
// store locally.
type Leaf struct {
	name     string
	upstream *dsr.Upstream
	db       dsr.ServerDb
	log      *logrus.Entry
	wait     time.Duration
}

// Option configures a Leaf at construction time.
type Option func(*Leaf)

// WithWait overrides the notice-wait timeout (default 1s).
func WithWait(d time.Duration) Option {
	return func(l *Leaf) { l.wait = d }
}

// New returns a Leaf named name, fetching its upstream handle from up. db
// is typically freshly created with dsr.NewServerDb.
func New(name string, up *dsr.Upstream, db dsr.ServerDb, opts ...Option) *Leaf {
	l := &Leaf{
		name:     name,
		upstream: up,
		db:       db,
		log:      logrus.WithFields(logrus.Fields{"name": name, "component": "leaf"}),
		wait:     defaultWait,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run fetches a startup snapshot, applies it, drains the child-version
// chain, then blocks on the notice bus (with periodic timeout wakes for
// liveness) forever. Per spec.md §4.6 step 3, a timeout wake re-enters the
// pull protocol exactly like an actual notice does: this is what makes a
// dropped notice (S4) only a latency hit, never a correctness one.
func (l *Leaf) Run() error {
	l.log.Infof("getting snapshot")
	snapshot := l.upstream.GetSnapshot()
	l.log.Infof("starting at snapshot version %s", snapshot.VersionId)
	l.db.ApplySnapshot(snapshot)

	for {
		dsr.PullChain(l.upstream, l.db, l.log)
		l.upstream.Wait(l.wait)
	}
}
