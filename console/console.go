/*
 * rvtrace - Interactive console.
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

// Package console offers a small liner-backed REPL for inspecting a
// finished split-tag cache run: stats, top-N, and quit.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/rcornwell/rvtrace/splitcache"
	"github.com/rcornwell/rvtrace/splitcache/report"
)

var commands = []string{"stats", "topn", "quit", "help"}

func completeCmd(line string) []string {
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// Run drives an "rvtrace>" prompt against ctrl until the user quits,
// aborts the prompt (Ctrl-C), or reading a line fails (including Ctrl-D).
func Run(ctrl *splitcache.Controller) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCmd)

	limit := ctrl.Limit
	if limit <= 0 {
		limit = 32
	}

	for {
		cmd, err := line.Prompt("rvtrace> ")
		if err == nil {
			line.AppendHistory(cmd)
			if quit := dispatch(ctrl, cmd, limit); quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading line: " + err.Error())
		return
	}
}

func dispatch(ctrl *splitcache.Controller, cmd string, limit int) (quit bool) {
	fields := strings.Fields(strings.TrimSpace(cmd))
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "exit":
		return true

	case "stats":
		report.WriteStats(os.Stdout, splitcache.Snapshot(ctrl.Cores()))

	case "topn":
		n := limit
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		report.WriteTopN(os.Stdout, "data", splitcache.TopN(ctrl.Registry(), splitcache.TopData, n))
		report.WriteTopN(os.Stdout, "fetch", splitcache.TopN(ctrl.Registry(), splitcache.TopFetch, n))
		if cores := ctrl.Cores(); len(cores) > 0 && cores[0].L2 != nil {
			report.WriteTopN(os.Stdout, "L2", splitcache.TopN(ctrl.Registry(), splitcache.TopL2, n))
		}

	case "help":
		fmt.Println("commands: stats, topn [limit], quit")

	default:
		fmt.Println("unknown command: " + fields[0])
	}
	return false
}
