// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/export"
	"github.com/jllopis/sdlcgen/pkg/generate"
	"github.com/jllopis/sdlcgen/pkg/intake"
	"github.com/jllopis/sdlcgen/pkg/mcp"
)

func runGenerate(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) error {
	cmd := flag.NewFlagSet("generate", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	formatFlag := cmd.String("format", string(export.FormatJSON), "output format: json, yaml or md")
	outPath := cmd.String("out", "", "write the result to this file instead of stdout")
	quiet := cmd.Bool("quiet", false, "do not print progress")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	format, err := export.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}
	if cmd.NArg() == 0 {
		return NewCLIError(
			errors.New(errors.CodeInvalidInput, "select at least one file to generate tasks", nil),
			"usage: sdlcgen generate [--format json|yaml|md] FILE...")
	}
	if a.credErr != nil {
		return a.credErr
	}

	files := make([]intake.File, 0, cmd.NArg())
	for _, path := range cmd.Args() {
		f, err := intake.FromPath(path)
		if err != nil {
			return errors.New(errors.CodeReadFailure, fmt.Sprintf("failed to read file %q", path), err)
		}
		files = append(files, f)
	}
	if err := a.cfg.Limits().Validate(files); err != nil {
		return err
	}

	var opts []generate.Option
	if !*quiet {
		opts = append(opts, generate.WithProgress(func(p generate.Progress) {
			fmt.Fprintln(stderr, p)
		}))
	}
	res, err := a.newRunner(opts...).Run(ctx, files)
	if err != nil {
		return err
	}

	if *outPath == "" {
		return export.Write(stdout, format, res.Aggregate)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", *outPath, err)
	}
	w := bufio.NewWriter(f)
	if err := export.Write(w, format, res.Aggregate); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Wrote %d roles and %d tasks to %s\n",
		res.Aggregate.Len(), res.Aggregate.TaskCount(), *outPath)
	return nil
}

func runMCP(a *app) error {
	opts := []mcp.Option{
		mcp.WithLimits(a.cfg.Limits()),
		mcp.WithLogger(a.logger),
	}
	if a.credErr != nil {
		opts = append(opts, mcp.WithUnavailable(a.credErr))
	}
	s := mcp.NewServer("sdlcgen", version, a.newRunner(), a.orchestrator, opts...)
	return s.ServeStdio()
}
