package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wflint/internal/trace"
)

// traceRing keeps the recent events for dumpTraceOnPanic; nil unless
// --trace-ring-size is set.
var traceRing *trace.RingTracer

// setupTracing inspects trace-related flags and attaches the tracer to the
// command context. The returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	// --trace без уровня включает фазы
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	var tracer trace.Tracer
	if traceOutput != "" {
		tracer, err = trace.New(trace.Config{Level: level, Format: format, OutputPath: traceOutput})
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
	}
	if ringSize > 0 {
		traceRing = trace.NewRingTracer(ringSize, level)
		if tracer == nil {
			tracer = traceRing
		} else {
			tracer = trace.NewMultiTracer(level, tracer, traceRing)
		}
	}
	if tracer == nil {
		tracer, err = trace.New(trace.Config{Level: level, Format: format})
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

// dumpTraceOnPanic prints the ring buffer before re-panicking.
func dumpTraceOnPanic() {
	r := recover()
	if r == nil {
		return
	}
	if traceRing != nil {
		fmt.Fprintln(os.Stderr, "--- last trace events ---")
		_ = traceRing.Dump(os.Stderr, trace.FormatText)
	}
	panic(r)
}
