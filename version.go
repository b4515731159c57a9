package dsr

import "github.com/google/uuid"

// VersionId names a point in a ServerDb's version sequence. The zero value
// means "no version yet" and is the starting current_version_id of a fresh
// ServerDb.
type VersionId = uuid.UUID

// NewVersionId mints a fresh, globally-unique VersionId.
func NewVersionId() VersionId {
	return uuid.New()
}

// UpdateKind distinguishes the two Update variants. Go has no sum types, so
// this is modeled as a tagged struct rather than an interface: the variant
// set is closed and Updates must stay trivially copyable for transmission
// across a Link (spec invariant: Snapshots/Versions are value types).
type UpdateKind int

const (
	// Set upserts Value at Key.
	Set UpdateKind = iota
	// Delete removes Key, a no-op if the key is absent.
	Delete
)

// Update is an atomic mutation of one key.
type Update struct {
	Kind  UpdateKind
	Key   string
	Value string
}

// SetUpdate builds a Set update.
func SetUpdate(key, value string) Update {
	return Update{Kind: Set, Key: key, Value: value}
}

// DeleteUpdate builds a Delete update.
func DeleteUpdate(key string) Update {
	return Update{Kind: Delete, Key: key}
}

// Version is a transition from a parent state to its child state: a named
// VersionId plus the ordered Updates that produce it.
type Version struct {
	VersionId VersionId
	Updates   []Update
}

// Clone returns a deep copy of v, safe to hand to a caller that does not
// share ownership of the underlying slice.
func (v Version) Clone() Version {
	updates := make([]Update, len(v.Updates))
	copy(updates, v.Updates)
	return Version{VersionId: v.VersionId, Updates: updates}
}
