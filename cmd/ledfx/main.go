package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	logxi "github.com/mgutz/logxi/v1" // Using a forked copy of this package results in build issues

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx"
	"github.com/TeamNorCal/ledfx/version"

	"github.com/karlmutch/envflag" // Forked copy of https://github.com/GoBike/envflag
)

var (
	logger = logxi.New("ledfx")

	verbose    = flag.Bool("v", false, "When enabled will print internal logging for this tool")
	configFile = flag.String("config", "ledfx.yaml", "The YAML file describing the LED groups and the transports used to reach them")
	console    = flag.Bool("console", true, "Read commands from the terminal")
	monitor    = flag.Bool("monitor", false, "Log every emitted frame at debug level")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]       effects → Art-Net / OPC / DotStar (ledfx)      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "ledfx runs animated effects on groups of addressable LEDs")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment Variables:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options can also be extracted from environment variables by changing dashes '-' to underscores and using upper case.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "log levels are handled by the LOGXI env variables, these are documented at https://github.com/mgutz/logxi")
}

func init() {
	flag.Usage = usage
}

func main() {

	// Parse the CLI flags
	if !flag.Parsed() {
		envflag.Parse()
	}

	if *verbose {
		logger.SetLevel(logxi.LevelDebug)
	}

	logger.Debug(fmt.Sprintf("%s built at %s, against commit id %s", os.Args[0], version.BuildTime, version.GitHash))

	cfg, err := ledfx.LoadConfig(*configFile)
	if err != nil {
		logger.Fatal(err.Error())
		os.Exit(-1)
	}

	quitC := make(chan struct{})
	errorC := make(chan errors.Error, 8)

	go watchErrors(errorC, quitC)

	gw, err := ledfx.StartGateway(cfg, logger, errorC, quitC)
	if err != nil {
		logger.Fatal(err.Error())
		os.Exit(-1)
	}
	defer gw.Close()

	if *monitor {
		go runMonitoring(gw.SubscribeC, quitC)
	}

	logger.Info("started", "groups", len(cfg.Groups), "transport", cfg.Transport)

	doneC := make(chan struct{})
	if *console {
		go func() {
			defer close(doneC)
			runConsole(gw.Engine, os.Stdin, os.Stdout)
		}()
	}

	stopC := make(chan os.Signal, 1)
	signal.Notify(stopC, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stopC:
	case <-doneC:
	}

	// Leave the lights dark on the way out
	gw.Engine.StopAll()
	close(quitC)
}
