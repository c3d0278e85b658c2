//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	systemd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/nestybox/tuner-arbiterd/boundary"
	"github.com/nestybox/tuner-arbiterd/config"
	"github.com/nestybox/tuner-arbiterd/procfsoracle"
)

const (
	runDir   string = "/run/tuner-arbiterd"
	pidFile  string = runDir + "/tuner-arbiterd.pid"
	usage    string = `tuner-arbiterd resource arbiter

tuner-arbiterd is a daemon that mediates concurrent access to a TV
tuner's frontends, LNBs, CAS and CiCam sessions across client processes,
granting the highest-priority request at every decision point and
reclaiming resources from lower-priority holders when necessary.
`
)

// Globals populated at build time during Makefile processing.
var (
	version  string
	commitId string
	builtAt  string
	builtBy  string
)

// exitHandler performs the graceful-shutdown sequence: notify systemd,
// optionally dump a stack trace, stop profiling, delete the pid file,
// exit.
func exitHandler(signalChan chan os.Signal, prof interface{ Stop() }) {
	var printStack = false

	s := <-signalChan

	logrus.Warnf("tuner-arbiterd caught signal: %s", s)
	logrus.Info("Stopping (gracefully) ...")

	systemd.SdNotify(false, systemd.SdNotifyStopping)

	switch s {
	case syscall.SIGABRT, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGSEGV:
		printStack = true
	}

	if printStack {
		stacktrace := make([]byte, 32768)
		length := runtime.Stack(stacktrace, true)
		logrus.Warnf("\n\n%s\n", string(stacktrace[:length]))
	}

	if prof != nil {
		prof.Stop()
	}

	if err := DestroyPidFile(pidFile); err != nil {
		logrus.Warnf("failed to destroy tuner-arbiterd pid file: %v", err)
	}

	logrus.Info("Exiting ...")
	os.Exit(0)
}

// runProfiler starts cpu or memory profiling collection, per the two
// mutually exclusive flags. NoShutdownHook is passed so this daemon's own
// signal handler remains the one thing that stops profiling.
func runProfiler(ctx *cli.Context) (interface{ Stop() }, error) {
	cpuProfOn := ctx.Bool("cpu-profiling")
	memProfOn := ctx.Bool("memory-profiling")

	if cpuProfOn && memProfOn {
		return nil, fmt.Errorf("unsupported parameter combination: cpu and memory profiling")
	}
	if !(cpuProfOn || memProfOn) {
		return nil, nil
	}

	if cpuProfOn {
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	}
	return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
}

func setupRunDir() error {
	if err := os.MkdirAll(runDir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", runDir, err)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "tuner-arbiterd"
	app.Usage = usage
	app.Version = version

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "priority-table",
			Value: "",
			Usage: "path to a priority-table YAML file (default: this repository's built-in table)",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "log file path or empty string for stderr output (default: \"\")",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log categories to include (debug, info, warning, error, fatal)",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "log format; must be json or text",
		},
		cli.BoolFlag{
			Name:   "cpu-profiling",
			Usage:  "enable cpu-profiling data collection",
			Hidden: true,
		},
		cli.BoolFlag{
			Name:   "memory-profiling",
			Usage:  "enable memory-profiling data collection",
			Hidden: true,
		},
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("tuner-arbiterd\n"+
			"\tversion: \t%s\n"+
			"\tcommit: \t%s\n"+
			"\tbuilt at: \t%s\n"+
			"\tbuilt by: \t%s\n",
			c.App.Version, commitId, builtAt, builtBy)
	}

	app.Before = func(ctx *cli.Context) error {
		rand.Seed(time.Now().UnixNano())

		if path := ctx.GlobalString("log"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0666)
			if err != nil {
				logrus.Fatalf("Error opening log file %v: %v. Exiting ...", path, err)
				return err
			}
			logrus.SetOutput(f)
			log.SetOutput(f)
		} else {
			logrus.SetOutput(os.Stderr)
			log.SetOutput(os.Stderr)
		}

		if logFormat := ctx.GlobalString("log-format"); logFormat == "json" {
			logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
		} else {
			logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true})
		}

		switch logLevel := ctx.GlobalString("log-level"); logLevel {
		case "debug":
			logrus.SetLevel(logrus.DebugLevel)
		case "info":
			logrus.SetLevel(logrus.InfoLevel)
		case "warning":
			logrus.SetLevel(logrus.WarnLevel)
		case "error":
			logrus.SetLevel(logrus.ErrorLevel)
		case "fatal":
			logrus.SetLevel(logrus.FatalLevel)
		default:
			logrus.Fatalf("log-level option '%v' not recognized. Exiting ...", logLevel)
		}

		return nil
	}

	app.Action = func(ctx *cli.Context) error {
		logrus.Info("Initiating tuner-arbiterd ...")

		if err := CheckPidFile("tuner-arbiterd", pidFile); err != nil {
			return err
		}

		table := config.DefaultPriorityTable()
		if path := ctx.String("priority-table"); path != "" {
			loaded, err := config.LoadPriorityTable(afero.NewOsFs(), path)
			if err != nil {
				return fmt.Errorf("failed to load priority table: %w", err)
			}
			table = loaded
			logrus.Infof("Loaded priority table from %s", path)
		} else {
			logrus.Info("Using built-in default priority table")
		}

		oracle := procfsoracle.New()
		b := boundary.New(table, oracle, prometheus.DefaultRegisterer, logrus.StandardLogger())

		if err := setupRunDir(); err != nil {
			return err
		}

		prof, err := runProfiler(ctx)
		if err != nil {
			logrus.Fatal(err)
		}

		exitChan := make(chan os.Signal, 1)
		signal.Notify(exitChan,
			syscall.SIGHUP,
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGSEGV,
			syscall.SIGQUIT)
		go exitHandler(exitChan, prof)

		systemd.SdNotify(false, systemd.SdNotifyReady)

		if err := CreatePidFile("tuner-arbiterd", pidFile); err != nil {
			return fmt.Errorf("failed to create tuner-arbiterd.pid file: %w", err)
		}

		logrus.Info("Ready ...")

		// The binder/IPC transport that carries Boundary API calls from
		// client processes and the hardware HAL is an external
		// collaborator (spec.md section 1); this is the attach point
		// where it would wrap b and start serving. Block here until
		// signaled so the process stays up as a transport host.
		_ = b
		select {}
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
