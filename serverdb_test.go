package dsr

import (
	"testing"

	"github.com/go-test/deep"
)

func TestServerDbApplyVersionAdvancesCurrent(t *testing.T) {
	db := NewServerDb(nil)
	v1 := Version{VersionId: NewVersionId(), Updates: []Update{SetUpdate("a", "1")}}

	db.ApplyVersion(v1)

	if db.CurrentVersionId() != v1.VersionId {
		t.Fatalf("current = %s, want %s", db.CurrentVersionId(), v1.VersionId)
	}
	snap := db.GetSnapshot()
	if diff := deep.Equal(map[string]string{"a": "1"}, snap.Data); diff != nil {
		t.Fatalf("data mismatch: %v", diff)
	}
}

func TestServerDbApplyVersionSetAndDelete(t *testing.T) {
	db := NewServerDb(nil)
	db.ApplyVersion(Version{VersionId: NewVersionId(), Updates: []Update{SetUpdate("x", "1")}})
	db.ApplyVersion(Version{VersionId: NewVersionId(), Updates: []Update{SetUpdate("x", "2")}})
	db.ApplyVersion(Version{VersionId: NewVersionId(), Updates: []Update{DeleteUpdate("x")}})

	snap := db.GetSnapshot()
	if len(snap.Data) != 0 {
		t.Fatalf("expected empty data after delete, got %v", snap.Data)
	}
}

func TestServerDbDeleteAbsentKeyIsNoOp(t *testing.T) {
	db := NewServerDb(nil)
	db.ApplyVersion(Version{VersionId: NewVersionId(), Updates: []Update{DeleteUpdate("missing")}})

	snap := db.GetSnapshot()
	if len(snap.Data) != 0 {
		t.Fatalf("expected empty data, got %v", snap.Data)
	}
}

func TestServerDbGetChildVersionRoundTrip(t *testing.T) {
	db := NewServerDb(nil)
	prevCurrent := db.CurrentVersionId()
	v1 := Version{VersionId: NewVersionId(), Updates: []Update{SetUpdate("a", "1")}}

	db.ApplyVersion(v1)

	got := db.GetChildVersion(prevCurrent)
	if got == nil {
		t.Fatal("expected a child version, got nil")
	}
	if got.VersionId != v1.VersionId {
		t.Fatalf("child = %s, want %s", got.VersionId, v1.VersionId)
	}
}

func TestServerDbGetChildVersionUnknownParent(t *testing.T) {
	db := NewServerDb(nil)
	if v := db.GetChildVersion(NewVersionId()); v != nil {
		t.Fatalf("expected nil, got %+v", v)
	}
}

func TestServerDbCacheVersionDoesNotAdvanceCurrent(t *testing.T) {
	db := NewServerDb(nil)
	before := db.CurrentVersionId()
	parent := NewVersionId()
	v := Version{VersionId: NewVersionId(), Updates: []Update{SetUpdate("a", "1")}}

	db.CacheVersion(parent, v)

	if db.CurrentVersionId() != before {
		t.Fatalf("current changed after CacheVersion: %s != %s", db.CurrentVersionId(), before)
	}
	if len(db.GetSnapshot().Data) != 0 {
		t.Fatal("CacheVersion must not touch data")
	}
	got := db.GetChildVersion(parent)
	if got == nil || got.VersionId != v.VersionId {
		t.Fatalf("cached version not retrievable: %+v", got)
	}
}

func TestServerDbApplySnapshotIsIdempotentRoundTrip(t *testing.T) {
	db := NewServerDb(nil)
	db.ApplyVersion(Version{VersionId: NewVersionId(), Updates: []Update{SetUpdate("a", "1")}})

	snap := db.GetSnapshot()
	db.ApplySnapshot(snap)

	after := db.GetSnapshot()
	if diff := deep.Equal(snap, after); diff != nil {
		t.Fatalf("apply_snapshot(get_snapshot()) was not a no-op: %v", diff)
	}
}

func TestServerDbApplySnapshotReportsToMetrics(t *testing.T) {
	fake := &fakeMetrics{}
	db := NewServerDb(fake)

	db.ApplySnapshot(Snapshot{VersionId: NewVersionId(), Data: map[string]string{"a": "1"}})

	if fake.snapshotsApplied != 1 {
		t.Fatalf("snapshotsApplied = %d, want 1", fake.snapshotsApplied)
	}
}

func TestServerDbApplySnapshotReplacesDataWholesale(t *testing.T) {
	db := NewServerDb(nil)
	db.ApplyVersion(Version{VersionId: NewVersionId(), Updates: []Update{SetUpdate("a", "1")}})

	replacement := Snapshot{VersionId: NewVersionId(), Data: map[string]string{"b": "2"}}
	db.ApplySnapshot(replacement)

	snap := db.GetSnapshot()
	if diff := deep.Equal(replacement.Data, snap.Data); diff != nil {
		t.Fatalf("data mismatch after ApplySnapshot: %v", diff)
	}
	if snap.VersionId != replacement.VersionId {
		t.Fatalf("version = %s, want %s", snap.VersionId, replacement.VersionId)
	}
}

func TestServerDbApplySnapshotPreservesOlderCachedVersions(t *testing.T) {
	// Invariant from spec.md §4.1: apply_snapshot does not clear the
	// version index, so older cached child versions remain valid lookups
	// for peers still lagging behind the new current.
	db := NewServerDb(nil)
	parent := NewVersionId()
	cached := Version{VersionId: NewVersionId(), Updates: nil}
	db.CacheVersion(parent, cached)

	db.ApplySnapshot(Snapshot{VersionId: NewVersionId(), Data: map[string]string{}})

	got := db.GetChildVersion(parent)
	if got == nil || got.VersionId != cached.VersionId {
		t.Fatalf("expected cached version to survive ApplySnapshot, got %+v", got)
	}
}

func TestServerDbSnapshotIsAnIndependentCopy(t *testing.T) {
	db := NewServerDb(nil)
	db.ApplyVersion(Version{VersionId: NewVersionId(), Updates: []Update{SetUpdate("a", "1")}})

	snap := db.GetSnapshot()
	snap.Data["a"] = "mutated"

	if db.GetSnapshot().Data["a"] != "1" {
		t.Fatal("mutating a returned Snapshot must not affect the ServerDb")
	}
}
