package dsr

import "time"

// requestChannelCapacity bounds the upstream-bound request channel. The
// Rust reference uses an unbounded mpsc::channel; Go has no unbounded
// channel primitive, so a generously-sized buffer stands in for it. Given
// the serving windows in spec.md §5 (400ms/10ms), this is large enough that
// a sender only blocks if a peer has genuinely stalled, which is the same
// "blocks only if the channel is closed/stalled" behavior spec.md §4.2
// describes.
const requestChannelCapacity = 256

// Downstream is the downstream-facing half of a Link, owned by the parent
// node: the receiving end of the upstream-bound request channel, and the
// broadcaster for the downstream-bound notice bus.
type Downstream struct {
	requests chan Request
	notices  *NoticeBus
}

// NewDownstream returns an empty Downstream ready to be served and to mint
// Upstream handles for children.
func NewDownstream(m Metrics) *Downstream {
	return &Downstream{
		requests: make(chan Request, requestChannelCapacity),
		notices:  NewNoticeBus(m),
	}
}

// MakeUpstream returns a new Upstream handle joined to this Downstream: the
// Link between this node and one child.
func (d *Downstream) MakeUpstream() *Upstream {
	return &Upstream{
		requests: d.requests,
		notices:  d.notices.Subscribe(),
	}
}

// Requests exposes the request channel for a serving loop to select or
// receive-with-timeout on.
func (d *Downstream) Requests() <-chan Request {
	return d.requests
}

// Notify broadcasts a NewVersion notice to every subscribed child.
func (d *Downstream) Notify() {
	d.notices.Broadcast(NewVersion)
}

// ServeFor answers requests as they arrive, calling handle for each, until
// timeout elapses with no request pending. The timeout is reset after every
// request handled, mirroring the Rust reference's repeated
// recv_timeout(timeout) loop: a node keeps serving as long as requests keep
// arriving, and only stops after a genuine gap. It returns the number of
// requests handled.
func (d *Downstream) ServeFor(timeout time.Duration, handle func(Request)) int {
	served := 0
	for {
		select {
		case req := <-d.requests:
			handle(req)
			served++
		case <-time.After(timeout):
			return served
		}
	}
}

// Upstream is a handle to an upstream node, held by a child: the sending
// end of the request channel plus this child's notice-bus reader.
type Upstream struct {
	requests chan<- Request
	notices  *NoticeReader
}

// GetSnapshot asks upstream for a Snapshot and blocks for the reply.
func (u *Upstream) GetSnapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	u.requests <- GetSnapshotRequest{Reply: reply}
	return <-reply
}

// GetChildVersion asks upstream for the child Version of parent, or nil if
// upstream has none.
func (u *Upstream) GetChildVersion(parent VersionId) *Version {
	reply := make(chan *Version, 1)
	u.requests <- GetChildVersionRequest{ParentVersionId: parent, Reply: reply}
	return <-reply
}

// Wait blocks for up to d for a notice from upstream, returning true if one
// arrived. Any further notices already buffered are drained, so a burst of
// notices collapses to one wakeup.
func (u *Upstream) Wait(d time.Duration) bool {
	_, ok := u.notices.RecvTimeout(d)
	if ok {
		u.notices.DrainCoalesced()
	}
	return ok
}
