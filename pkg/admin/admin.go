// Package admin adapts the teacher's pkg/admin: a small HTTP server
// exposing health and metrics endpoints for one node.
package admin

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handler struct {
	promHandler http.Handler
	ready       *bool
}

// NewServer returns an initialized http.Server, configured to listen on
// addr, exposing /metrics (scraped from reg), /ping, and /ready. reg is a
// prometheus.NewRegistry() shared by every node in the process: each node's
// counters carry a distinct "node" const label, so their descriptors never
// collide even when registered to the same Registry.
func NewServer(addr string, reg *prometheus.Registry, ready *bool) *http.Server {
	h := &handler{
		promHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ready:       ready,
	}

	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
	}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/metrics":
		h.promHandler.ServeHTTP(w, req)
	case "/ping":
		w.Write([]byte("pong\n"))
	case "/ready":
		h.serveReady(w)
	default:
		http.NotFound(w, req)
	}
}

func (h *handler) serveReady(w http.ResponseWriter) {
	if h.ready != nil && !*h.ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready\n"))
		return
	}
	w.Write([]byte("ok\n"))
}
