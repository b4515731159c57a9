// Command dsr-demo is the reference harness from spec.md §6: it launches
// one intake, one intermediate, and three leaves, waits, launches two more
// leaves under the intermediate, waits again, then exits. This is wiring,
// not part of the replication core.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"

	"github.com/djmitche/dsr"
	"github.com/djmitche/dsr/intake"
	"github.com/djmitche/dsr/intermediate"
	"github.com/djmitche/dsr/leaf"
	"github.com/djmitche/dsr/pkg/admin"
	"github.com/djmitche/dsr/pkg/flags"
)

func main() {
	fs := flag.NewFlagSet("dsr-demo", flag.ExitOnError)
	adminAddr := fs.String("admin-addr", ":9990", "address to serve /metrics, /ping, /ready on")
	intakeWindow := fs.Duration("intake-window", 400*time.Millisecond, "intake's downstream-serving window")
	intermediateWindow := fs.Duration("intermediate-window", 10*time.Millisecond, "intermediate's downstream-serving/notice-poll window")
	leafWait := fs.Duration("leaf-wait", time.Second, "leaf's notice-wait timeout")
	negativeCache := fs.Bool("negative-cache", false, "enable the intermediate's negative cache (spec.md §4.5/§9 TODO)")

	flags.ConfigureAndParse(fs, os.Args[1:])

	reg := prometheus.NewRegistry()
	ready := false
	adminServer := admin.NewServer(*adminAddr, reg, &ready)
	go func() {
		log.Infof("starting admin server on %s", *adminAddr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("admin server error: %s", err)
		}
	}()

	metricsFor := func(node string) dsr.Metrics {
		return dsr.NewPrometheusMetrics(reg, node)
	}

	// Each node's metrics instance is built exactly once and shared between
	// its ServerDb and its Downstream (where applicable): building two
	// separate *PrometheusMetrics for the same node name would register the
	// same counter Desc twice against reg and panic on the second
	// MustRegister.
	intakeMetrics := metricsFor("intake")
	fakeIntake := intake.New("intake", dsr.NewServerDb(intakeMetrics), intake.WithWindow(*intakeWindow), intake.WithMetrics(intakeMetrics))

	dbg1 := leaf.New("dbg1", fakeIntake.MakeUpstream(), dsr.NewServerDb(metricsFor("dbg1")), leaf.WithWait(*leafWait))

	interMetrics := metricsFor("inter")
	intermediateOpts := []intermediate.Option{
		intermediate.WithWindow(*intermediateWindow),
		intermediate.WithMetrics(interMetrics),
	}
	if *negativeCache {
		intermediateOpts = append(intermediateOpts, intermediate.WithNegativeCache())
	}
	inter := intermediate.New("inter", fakeIntake.MakeUpstream(), dsr.NewServerDb(interMetrics), intermediateOpts...)

	dbg2 := leaf.New("dbg2", inter.MakeUpstream(), dsr.NewServerDb(metricsFor("dbg2")), leaf.WithWait(*leafWait))
	dbg3 := leaf.New("dbg3", inter.MakeUpstream(), dsr.NewServerDb(metricsFor("dbg3")), leaf.WithWait(*leafWait))

	// wg catches and re-raises any panic from a node's Run loop, tagged
	// with a stack trace, rather than letting a bare `go` statement
	// silently crash the whole process (spec.md §7's "fatal to the
	// node" state-invariant violations).
	var wg conc.WaitGroup
	runNode := func(name string, run func() error) {
		wg.Go(func() {
			if err := run(); err != nil {
				log.Errorf("%s: exited: %s", name, err)
			}
		})
	}

	runNode("intake", fakeIntake.Run)
	runNode("inter", inter.Run)
	runNode("dbg1", dbg1.Run)
	runNode("dbg2", dbg2.Run)
	runNode("dbg3", dbg3.Run)
	ready = true

	// Node loops never return under normal operation (spec.md §5:
	// shutdown is by process exit, there is no cooperative cancellation
	// signal), so wg.Wait() returns only if every node loop has returned.
	// A panic in one node does not close panicked: wg holds it and
	// re-raises it from wg.Wait() only after every other node goroutine
	// has finished as well.
	panicked := make(chan struct{})
	go func() {
		wg.Wait()
		close(panicked)
	}()

	select {
	case <-time.After(3 * time.Second):
	case <-panicked:
		log.Fatal("a node exited unexpectedly before the demo's 3s mark")
	}

	log.Warnf("starting dbg4, dbg5 under inter")
	dbg4 := leaf.New("dbg4", inter.MakeUpstream(), dsr.NewServerDb(metricsFor("dbg4")), leaf.WithWait(*leafWait))
	dbg5 := leaf.New("dbg5", inter.MakeUpstream(), dsr.NewServerDb(metricsFor("dbg5")), leaf.WithWait(*leafWait))
	runNode("dbg4", dbg4.Run)
	runNode("dbg5", dbg5.Run)

	select {
	case <-time.After(7 * time.Second):
	case <-panicked:
		log.Fatal("a node exited unexpectedly before the demo's 10s mark")
	}

	log.Infof("dsr-demo exiting")
	adminServer.Shutdown(context.Background())
}
