package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"irjax/internal/cache"
	"irjax/internal/observ"
	"irjax/internal/program"
	"irjax/internal/trace"
	"irjax/internal/version"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [program...]",
	Short: "Trace programs and print their modules",
	Long: `dump instantiates each named program (class or export name) and prints
the traced module. With --import-only the class signature is printed instead.`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().Bool("all", false, "dump every registered program")
	dumpCmd.Flags().Bool("import-only", false, "print class signatures without tracing")
	dumpCmd.Flags().Int("jobs", 0, "programs traced in parallel (0 = GOMAXPROCS)")
	dumpCmd.Flags().String("out", "", "write <export_name>.mlir files into this directory")
	dumpCmd.Flags().Bool("cache", false, "reuse traced modules from the on-disk cache")
	dumpCmd.Flags().String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/irjax)")
}

type dumpOptions struct {
	importOnly bool
	jobs       int
	outDir     string
	disk       *cache.Disk
	timer      *observ.Timer
}

// dumpResult is the output for one program, kept in argument order.
type dumpResult struct {
	cls    *program.Class
	text   string
	cached bool
}

func runDump(cmd *cobra.Command, args []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if !all && len(args) == 0 {
		return errors.New("no programs given (pass names or --all)")
	}
	if all && len(args) > 0 {
		return errors.New("--all cannot be combined with program names")
	}
	classes, err := resolvePrograms(program.Default, args)
	if err != nil {
		return err
	}
	opts, err := dumpOptionsFor(cmd)
	if err != nil {
		return err
	}

	results, err := dumpPrograms(cmd.Context(), classes, opts)
	if err != nil {
		return err
	}
	if err := emitResults(cmd.OutOrStdout(), results, opts); err != nil {
		return err
	}
	if opts.timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), opts.timer.Summary())
	}
	return nil
}

func dumpOptionsFor(cmd *cobra.Command) (dumpOptions, error) {
	var opts dumpOptions
	var err error
	if opts.importOnly, err = settingBool(cmd, "import-only", "dump", "import_only"); err != nil {
		return opts, err
	}
	if opts.jobs, err = settingInt(cmd, "jobs", "dump", "jobs"); err != nil {
		return opts, err
	}
	if opts.jobs < 0 {
		return opts, fmt.Errorf("--jobs must not be negative, got %d", opts.jobs)
	}
	if opts.jobs == 0 {
		opts.jobs = runtime.GOMAXPROCS(0)
	}
	if opts.outDir, err = settingString(cmd, "out", "dump", "out_dir"); err != nil {
		return opts, err
	}
	useCache, err := settingBool(cmd, "cache", "cache", "enabled")
	if err != nil {
		return opts, err
	}
	if useCache && !opts.importOnly {
		dir, err := settingString(cmd, "cache-dir", "cache", "dir")
		if err != nil {
			return opts, err
		}
		if opts.disk, err = openCache(dir); err != nil {
			return opts, err
		}
	}
	if timings, err := cmd.Flags().GetBool("timings"); err != nil {
		return opts, err
	} else if timings {
		opts.timer = observ.NewTimer()
	}
	return opts, nil
}

func openCache(dir string) (*cache.Disk, error) {
	if dir != "" {
		return cache.OpenDir(dir)
	}
	return cache.Open("irjax")
}

// dumpPrograms traces classes with at most opts.jobs in flight. The first
// failure cancels the rest.
func dumpPrograms(ctx context.Context, classes []*program.Class, opts dumpOptions) ([]dumpResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "dump")
	results := make([]dumpResult, len(classes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.jobs, 1))
	for i, cls := range classes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := dumpOne(gctx, cls, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", cls.Name(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.Fail(err).End("")
		return nil, err
	}
	span.End(fmt.Sprintf("%d programs", len(classes)))
	return results, nil
}

func dumpOne(ctx context.Context, cls *program.Class, opts dumpOptions) (dumpResult, error) {
	ci, err := program.GetClassInfo(cls)
	if err != nil {
		return dumpResult{}, err
	}
	if opts.importOnly {
		inst, err := program.New(ctx, cls, program.ImportOnly())
		if err != nil {
			return dumpResult{}, err
		}
		return dumpResult{cls: cls, text: program.GetInfo(inst).ClassInfo.Signature() + "\n"}, nil
	}

	key := cache.KeyFor(ci.Signature(), version.Version)
	if opts.disk != nil {
		idx := opts.timer.Begin("cache read " + ci.ExportName())
		var entry cache.Entry
		hit, err := opts.disk.Get(key, &entry)
		opts.timer.End(idx, hitNote(hit))
		if err != nil {
			return dumpResult{}, err
		}
		if hit {
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache hit", ci.ExportName(), trace.CurrentSpan(ctx))
			return dumpResult{cls: cls, text: entry.Text, cached: true}, nil
		}
	}

	idx := opts.timer.Begin("trace " + ci.ExportName())
	m, err := program.Lower(ctx, cls)
	if err != nil {
		opts.timer.End(idx, "failed")
		return dumpResult{}, err
	}
	opts.timer.End(idx, fmt.Sprintf("%d funcs", len(m.Funcs)))

	if opts.disk != nil {
		entry, err := cache.NewEntry(cls.Name(), m)
		if err != nil {
			return dumpResult{}, err
		}
		if err := opts.disk.Put(key, entry); err != nil {
			return dumpResult{}, err
		}
	}
	return dumpResult{cls: cls, text: m.String()}, nil
}

func hitNote(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// emitResults prints results in order, or writes one file per program when
// an output directory is set.
func emitResults(w io.Writer, results []dumpResult, opts dumpOptions) error {
	if opts.outDir == "" {
		for i, r := range results {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, r.text); err != nil {
				return err
			}
		}
		return nil
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, r := range results {
		ci, err := program.GetClassInfo(r.cls)
		if err != nil {
			return err
		}
		ext := ".mlir"
		if opts.importOnly {
			ext = ".sig"
		}
		path := filepath.Join(opts.outDir, ci.ExportName()+ext)
		if err := os.WriteFile(path, []byte(r.text), 0o644); err != nil {
			return err
		}
		note := ""
		if r.cached {
			note = " (cached)"
		}
		if _, err := fmt.Fprintf(w, "wrote %s%s\n", path, note); err != nil {
			return err
		}
	}
	return nil
}
