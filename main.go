/*
 * rvtrace - Main process.
 *
 * Copyright 2026, the rvtrace authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/rvtrace/addrtrace"
	"github.com/rcornwell/rvtrace/console"
	"github.com/rcornwell/rvtrace/replay"
	"github.com/rcornwell/rvtrace/splitcache"
	"github.com/rcornwell/rvtrace/splitcache/report"
	logger "github.com/rcornwell/rvtrace/util/logger"
)

var Logger *slog.Logger

// argList collects a repeatable "-a key=value" flag the way a single
// getopt.Value naturally does: Set runs once per occurrence on the
// command line.
type argList []string

func (a *argList) Set(value string, opt getopt.Option) error {
	*a = append(*a, value)
	return nil
}

func (a *argList) String() string {
	return fmt.Sprintf("%v", []string(*a))
}

func main() {
	optTrace := getopt.StringLong("trace", 't', "", "Trace file to replay")
	optPlugin := getopt.StringLong("plugin", 'p', "splitcache", "Analysis core: splitcache or addrtrace")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optVCPUs := getopt.IntLong("vcpus", 'n', 1, "Number of virtual CPUs the trace covers")
	optConsole := getopt.BoolLong("console", 'i', "Drop into the interactive console after the trace finishes")
	optSystem := getopt.BoolLong("system", 's', "Run in system-emulation mode")
	optHelp := getopt.BoolLong("help", 'h', "Help")

	var pluginArgs argList
	getopt.FlagLong(&pluginArgs, "args", 'a', "key=value option for the selected plugin, repeatable")

	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, false))
	slog.SetDefault(Logger)

	Logger.Info("rvtrace started")

	if optTrace == nil || *optTrace == "" {
		Logger.Error("please specify a trace file with --trace")
		os.Exit(1)
	}

	traceFile, err := os.Open(*optTrace)
	if err != nil {
		Logger.Error("can't open trace file: " + err.Error())
		os.Exit(1)
	}
	defer traceFile.Close()

	h := replay.New(*optVCPUs, *optSystem)

	var splitCtrl *splitcache.Controller
	var addrCtrl *addrtrace.Controller

	switch *optPlugin {
	case "splitcache":
		splitCtrl, err = splitcache.Install(h, []string(pluginArgs), Logger)
	case "addrtrace":
		addrCtrl, err = addrtrace.Install(h, []string(pluginArgs), os.Stderr, Logger)
	default:
		Logger.Error("unknown plugin: " + *optPlugin)
		os.Exit(1)
	}
	if err != nil {
		Logger.Error("plugin install failed: " + err.Error())
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)
	go func() { done <- h.Run(traceFile) }()

	select {
	case <-sigChan:
		fmt.Println("got quit signal")
	case runErr := <-done:
		if runErr != nil {
			Logger.Error("replay failed: " + runErr.Error())
			os.Exit(1)
		}
	}

	Logger.Info("replay finished")

	if splitCtrl != nil {
		var l2Top []splitcache.TopEntry
		if cores := splitCtrl.Cores(); len(cores) > 0 && cores[0].L2 != nil {
			l2Top = splitcache.TopN(splitCtrl.Registry(), splitcache.TopL2, splitCtrl.Limit)
		}
		report.WriteFull(os.Stdout,
			splitcache.Snapshot(splitCtrl.Cores()),
			splitcache.TopN(splitCtrl.Registry(), splitcache.TopData, splitCtrl.Limit),
			splitcache.TopN(splitCtrl.Registry(), splitcache.TopFetch, splitCtrl.Limit),
			l2Top,
		)
		if *optConsole {
			console.Run(splitCtrl)
		}
	}

	if addrCtrl != nil && *optConsole {
		Logger.Info("addrtrace has no interactive console; ignoring --console")
	}

	Logger.Info("rvtrace exiting")
}
