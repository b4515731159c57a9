package dsr

import "github.com/sirupsen/logrus"

// PullChain drains the child-version chain from upstream: it repeatedly
// asks for the child of db's current version and applies it, stopping the
// first time upstream replies with no child (spec.md §4.3). It returns the
// number of versions applied.
//
// This is the one piece of protocol logic shared verbatim by both the
// Caching Intermediate (§4.5) and the Debug Leaf (§4.6): both drain the
// same chain against their own upstream, they just differ in what they do
// before/after draining.
func PullChain(up *Upstream, db ServerDb, log *logrus.Entry) int {
	applied := 0
	for {
		v := up.GetChildVersion(db.CurrentVersionId())
		if v == nil {
			return applied
		}
		if log != nil {
			log.Debugf("applying version %s", v.VersionId)
		}
		db.ApplyVersion(*v)
		applied++
	}
}
