package dsr

import "github.com/sirupsen/logrus"

// ServeFromServerDb answers req directly from db: GetSnapshot replies with
// db.GetSnapshot(), GetChildVersion replies with db.GetChildVersion(parent).
// This is the intake's serving policy (spec.md §4.4): it never proxies,
// since it has no upstream.
//
// A reply-send failure means the requester has gone away; spec.md §7 says
// to log and continue, never treat it as fatal to the server side. Every
// reply channel created by Upstream is buffered (capacity 1), so a send
// here never blocks even if the caller stopped listening.
func ServeFromServerDb(req Request, db ServerDb, log *logrus.Entry) {
	switch r := req.(type) {
	case GetSnapshotRequest:
		r.Reply <- db.GetSnapshot()
	case GetChildVersionRequest:
		r.Reply <- db.GetChildVersion(r.ParentVersionId)
	default:
		if log != nil {
			log.Errorf("unknown request type %T", req)
		}
	}
}
