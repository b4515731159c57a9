package dsr

import "sync"

// ServerDb is a node's local materialised state plus its version index: the
// current version id, the mapping from parent version id to child Version,
// and the key/value data as of current. ServerDb is a small handle that may
// be copied freely; every copy shares the same underlying guarded state,
// Go's nearest idiom to the Rust reference's Arc<Mutex<ServerDbInner>>.
type ServerDb struct {
	inner *serverDbInner
}

type serverDbInner struct {
	mu sync.Mutex

	currentVersionId VersionId
	versions         map[VersionId]Version
	data             map[string]string

	metrics Metrics
}

// NewServerDb returns an empty ServerDb, current_version_id at the zero
// VersionId. m may be nil.
func NewServerDb(m Metrics) ServerDb {
	return ServerDb{inner: &serverDbInner{
		versions: make(map[VersionId]Version),
		data:     make(map[string]string),
		metrics:  noopIfNil(m),
	}}
}

// CurrentVersionId returns the node's most-recently-applied VersionId.
func (s ServerDb) CurrentVersionId() VersionId {
	in := s.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.currentVersionId
}

// ApplyVersion appends v as the new current version: applies each of its
// Updates, in order, to the data mapping (Set upserts, Delete removes an
// absent key as a no-op), records versions[current] = v, then advances
// current to v.VersionId.
func (s ServerDb) ApplyVersion(v Version) {
	in := s.inner
	in.mu.Lock()
	defer in.mu.Unlock()

	for _, upd := range v.Updates {
		switch upd.Kind {
		case Set:
			in.data[upd.Key] = upd.Value
		case Delete:
			delete(in.data, upd.Key)
		}
	}
	in.versions[in.currentVersionId] = v.Clone()
	in.currentVersionId = v.VersionId
	in.metrics.VersionApplied()
}

// CacheVersion records versions[parent] = v without touching current or
// data. Intended for proxy caching at caching intermediates: a version seen
// in transit from upstream, not yet (and perhaps never) applied locally.
func (s ServerDb) CacheVersion(parent VersionId, v Version) {
	in := s.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	in.versions[parent] = v.Clone()
	in.metrics.VersionCached()
}

// GetChildVersion returns a clone of the cached child of parent, or nil if
// no child of parent is known.
func (s ServerDb) GetChildVersion(parent VersionId) *Version {
	in := s.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.versions[parent]
	if !ok {
		return nil
	}
	clone := v.Clone()
	return &clone
}

// GetSnapshot returns a consistent (current, data) pair: no torn reads are
// possible since both are read under the same lock acquisition.
func (s ServerDb) GetSnapshot() Snapshot {
	in := s.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	snap := Snapshot{VersionId: in.currentVersionId, Data: in.data}.Clone()
	in.metrics.SnapshotServed()
	return snap
}

// ApplySnapshot replaces both current and data wholesale from snapshot. The
// version index is left untouched: cached child versions from before the
// snapshot remain valid lookups for peers still lagging behind it, even
// though they are no longer reachable by walking from the new current.
func (s ServerDb) ApplySnapshot(snapshot Snapshot) {
	in := s.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	cloned := snapshot.Clone()
	in.currentVersionId = cloned.VersionId
	in.data = cloned.Data
	in.metrics.SnapshotApplied()
}
