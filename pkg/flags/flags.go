// Package flags adapts the teacher's pkg/flags: command-line flags common
// to every dsr process (log level, version printing), parsed once up front
// so the rest of main can assume logging is already configured.
package flags

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/djmitche/dsr/pkg/version"
)

// ConfigureAndParse adds flags common to every dsr process to fs, parses
// args, and configures logrus accordingly. Call this after registering any
// process-specific flags on fs.
func ConfigureAndParse(fs *flag.FlagSet, args []string) {
	logLevel := fs.String("log-level", log.InfoLevel.String(),
		"log level, must be one of: panic, fatal, error, warn, info, debug")
	printVersion := fs.Bool("version", false, "print version and exit")

	fs.Parse(args)

	setLogLevel(*logLevel)
	maybePrintVersionAndExit(*printVersion)
}

func setLogLevel(logLevel string) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Fatalf("invalid log-level: %s", logLevel)
	}
	log.SetLevel(level)
}

func maybePrintVersionAndExit(printVersion bool) {
	if printVersion {
		fmt.Println(version.Version)
		os.Exit(0)
	}
	log.Infof("running version %s", version.Version)
}
