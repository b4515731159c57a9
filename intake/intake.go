// Package intake implements the root of a replication tree: the node that
// originates versions. Grounded on original_source/src/fakeintake.rs, the
// only producer of Version history in the system.
package intake

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/djmitche/dsr"
)

// numKeys is the size of the fixed key set the demo data source mutates,
// matching FAKE_INTAKE_NUM_KEYS in the original.
const numKeys = 2

// defaultWindow is the recommended production-window duration from
// spec.md §4.4.
const defaultWindow = 400 * time.Millisecond

// Intake originates versions: it serves downstream requests for a window,
// then mints and applies exactly one new Version, then notifies.
type Intake struct {
	name       string
	downstream *dsr.Downstream
	db         dsr.ServerDb
	log        *logrus.Entry
	window     time.Duration
	metrics    dsr.Metrics
	keys       [numKeys]string
}

// Option configures an Intake at construction time.
type Option func(*Intake)

// WithWindow overrides the production-window duration (default 400ms).
func WithWindow(d time.Duration) Option {
	return func(i *Intake) { i.window = d }
}

// WithMetrics reports the intake's own notice-bus broadcasts/drops to m.
func WithMetrics(metrics dsr.Metrics) Option {
	return func(i *Intake) { i.metrics = metrics }
}

// New returns an Intake named name, backed by db, with its own independent
// random key set. db would typically be freshly created with
// dsr.NewServerDb, but is accepted as a parameter so a caller can pre-seed
// metrics or (in tests) inspect it directly.
func New(name string, db dsr.ServerDb, opts ...Option) *Intake {
	i := &Intake{
		name:    name,
		db:      db,
		log:     logrus.WithFields(logrus.Fields{"name": name, "component": "intake"}),
		window:  defaultWindow,
		metrics: dsr.NopMetrics{},
	}
	for k := range i.keys {
		i.keys[k] = uuid.New().String()
	}
	for _, opt := range opts {
		opt(i)
	}
	i.downstream = dsr.NewDownstream(i.metrics)
	return i
}

// MakeUpstream returns a new Upstream handle for a child node.
func (i *Intake) MakeUpstream() *dsr.Upstream {
	return i.downstream.MakeUpstream()
}

// Run serves downstream requests and mints versions forever. It only
// returns (or panics) on an unrecoverable condition; per spec.md §7,
// producing updates never fails, so the only realistic exit is the caller
// cancelling the process.
func (i *Intake) Run() error {
	for {
		i.downstream.ServeFor(i.window, func(req dsr.Request) {
			dsr.ServeFromServerDb(req, i.db, i.log)
		})

		newVersionId := dsr.NewVersionId()
		i.log.Infof("creating version %s", newVersionId)
		v := dsr.Version{VersionId: newVersionId, Updates: i.randomUpdates()}
		i.db.ApplyVersion(v)

		i.log.Infof("sending new-version notice")
		i.downstream.Notify()
	}
}

func (i *Intake) randomKey() string {
	return i.keys[rand.IntN(len(i.keys))]
}

func (i *Intake) randomValue() string {
	return uuid.New().String()
}

// randomUpdates produces a pseudo-random sequence of Updates over the
// intake's fixed key set, matching fakeintake.rs's random_updates: a random
// count of 1-256 updates, each a coin-flip between Set and Delete.
func (i *Intake) randomUpdates() []dsr.Update {
	n := rand.IntN(256) + 1
	updates := make([]dsr.Update, 0, n)
	for k := 0; k < n; k++ {
		key := i.randomKey()
		if rand.IntN(2) == 0 {
			updates = append(updates, dsr.DeleteUpdate(key))
		} else {
			updates = append(updates, dsr.SetUpdate(key, i.randomValue()))
		}
	}
	return updates
}
