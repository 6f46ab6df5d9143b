// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Command sdlcgen turns project documents into SDLC roles, tasks, and AI
// prompts. It serves a web UI, runs one-shot generations, and exposes the same
// run loop as MCP tools.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jllopis/sdlcgen/pkg/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalFlags struct {
	ConfigArgs []string
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err, false)
	}
	if global.Help || len(args) == 0 {
		printUsage(os.Stdout)
		return
	}

	if err := run(ctx, global, args, os.Stdout, os.Stderr); err != nil {
		fatal(err, global.JSON)
	}
}

func run(ctx context.Context, global globalFlags, args []string, stdout, stderr io.Writer) error {
	cmd := args[0]
	switch cmd {
	case "help":
		printUsage(stdout)
		return nil
	case "version":
		fmt.Fprintln(stdout, version)
		return nil
	case "serve":
		watcher, err := config.NewWatcher(global.ConfigArgs)
		if err != nil {
			return NewConfigError(err)
		}
		a, err := newApp(ctx, watcher.Config(), stderr, false)
		if err != nil {
			return err
		}
		defer a.Close()
		return runServe(ctx, a, watcher)
	case "generate", "mcp":
		cfg, err := config.LoadWithCLI(global.ConfigArgs)
		if err != nil {
			return NewConfigError(err)
		}
		a, err := newApp(ctx, cfg, stderr, cmd == "mcp")
		if err != nil {
			return err
		}
		defer a.Close()
		if cmd == "mcp" {
			return runMCP(a)
		}
		return runGenerate(ctx, a, args[1:], stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config" || arg == "--set":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for %s", arg)
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case strings.HasPrefix(arg, "--config="), strings.HasPrefix(arg, "--set="):
			flags.ConfigArgs = append(flags.ConfigArgs, arg)
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `sdlcgen: Agile SDLC task and prompt generator

Usage:
  sdlcgen [global flags] <command> [args]

Global flags:
  --config <path>      Path to a YAML config file
  --set key=value      Override config (repeatable)
  --json               JSON error output

Commands:
  serve                              Start the web UI (web.addr, default :8088)
  generate [--format json|yaml|md] [--out <path>] FILE...
                                     Analyze local documents and print the result
  mcp                                Serve generate_tasks and orchestration_prompt over stdio
  version

Environment:
  GEMINI_API_KEY or API_KEY          Analysis service credential
  SDLCGEN_<SECTION>_<KEY>            Config override, e.g. SDLCGEN_LLM_MODEL
`)
}

func fatal(err error, json bool) {
	PrintError(os.Stderr, err, json)
	os.Exit(1)
}
