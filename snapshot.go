package dsr

// Snapshot is a complete materialised state at a point in time: a VersionId
// and the full key/value mapping as of that version. Snapshots are value
// types, self-contained, and safe to transmit as a unit.
type Snapshot struct {
	VersionId VersionId
	Data      map[string]string
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	data := make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	return Snapshot{VersionId: s.VersionId, Data: data}
}
