package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"irjax/internal/program"
	"irjax/internal/trace"
)

// setupTracing builds the tracer from flags, falling back to the [trace]
// table of irjax.toml for flags that were not given. It returns a cleanup
// function that flushes and closes the tracer.
func setupTracing(cmd *cobra.Command) (func(), error) {
	output, err := settingString(cmd, "trace", "trace", "output")
	if err != nil {
		return nil, err
	}
	levelStr, err := settingString(cmd, "trace-level", "trace", "level")
	if err != nil {
		return nil, err
	}
	modeStr, err := settingString(cmd, "trace-mode", "trace", "mode")
	if err != nil {
		return nil, err
	}
	formatStr, err := settingString(cmd, "trace-format", "trace", "format")
	if err != nil {
		return nil, err
	}
	ringSize, err := cmd.Flags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	program.Default.SetTracer(tracer)

	cleanup := func() {
		if ring := ringOf(tracer); ring != nil && mode == trace.ModeRing {
			if err := ring.Dump(cmd.ErrOrStderr(), format); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

func ringOf(t trace.Tracer) *trace.RingTracer {
	switch x := t.(type) {
	case *trace.RingTracer:
		return x
	case *trace.MultiTracer:
		return x.Ring()
	default:
		return nil
	}
}
