package dsr

// Request is a message sent upstream along a Link's request channel. Each
// variant carries its own single-use reply channel; replies are routed to
// the specific caller rather than through the shared channel, since the
// multi-producer/single-consumer request channel has no way to address a
// reply back to one sender. This is the tagged-variant-plus-one-shot-channel
// pattern spec.md §9 calls out as mapping cleanly to any language.
type Request interface {
	isRequest()
}

// GetSnapshotRequest asks upstream for its current Snapshot.
type GetSnapshotRequest struct {
	Reply chan<- Snapshot
}

func (GetSnapshotRequest) isRequest() {}

// GetChildVersionRequest asks upstream for the Version whose parent is
// ParentVersionId, if known.
type GetChildVersionRequest struct {
	ParentVersionId VersionId
	Reply           chan<- *Version
}

func (GetChildVersionRequest) isRequest() {}
