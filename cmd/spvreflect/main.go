package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tebeka/atexit"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/spirv-reflect/cache"
	"github.com/wippyai/spirv-reflect/errors"
)

type options struct {
	log         *zap.Logger
	format      string
	cachePath   string
	rebind      string
	output      string
	set         int
	interactive bool
	tty         bool
}

func main() {
	var (
		format      = flag.String("format", "text", "Output format: text or json")
		set         = flag.Int("set", -1, "Only show this descriptor set")
		interactive = flag.Bool("i", false, "Interactive browser (requires a terminal)")
		cachePath   = flag.String("cache", "", "Reflection cache database")
		rebind      = flag.String("rebind", "", "Move bindings: ID=SET.BINDING[,ID=SET.BINDING...]")
		output      = flag.String("o", "", "Output file for -rebind")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: spvreflect [-format text|json] [-set N] [-cache db] file.spv[.zst]...")
		fmt.Fprintln(os.Stderr, "       spvreflect -rebind ID=SET.BINDING -o out.spv file.spv")
		fmt.Fprintln(os.Stderr, "       spvreflect -i file.spv  (interactive mode)")
		atexit.Exit(1)
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}
	atexit.Register(func() { _ = log.Sync() })
	cache.SetLogger(log.Named("cache"))

	opts := options{
		log:         log,
		format:      *format,
		cachePath:   *cachePath,
		rebind:      *rebind,
		output:      *output,
		set:         *set,
		interactive: *interactive,
		tty:         term.IsTerminal(int(os.Stdout.Fd())),
	}
	if err := run(os.Stdout, opts, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// errorMessage leads with the description of a library error kind and keeps
// the full error for context.
func errorMessage(err error) string {
	kind := errors.KindOf(err)
	if kind == "" {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Error: %s\n  %v", errors.Describe(kind), err)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

func run(w io.Writer, opts options, files []string) error {
	if opts.log == nil {
		opts.log = zap.NewNop()
	}
	if opts.format != "text" && opts.format != "json" {
		return errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("unknown output format %q", opts.format))
	}

	switch {
	case opts.rebind != "":
		if len(files) != 1 || opts.output == "" {
			return errors.InvalidInput(errors.PhaseLoad, "-rebind needs exactly one input file and -o")
		}
		return runRebind(w, opts, files[0])

	case opts.interactive:
		if len(files) != 1 {
			return errors.InvalidInput(errors.PhaseLoad, "-i takes exactly one input file")
		}
		if !opts.tty {
			return errors.InvalidInput(errors.PhaseLoad, "-i requires a terminal")
		}
		r, err := reflectFile(opts, nil, files[0])
		if err != nil {
			return err
		}
		return runInteractive(r)
	}

	var store *cache.Store
	if opts.cachePath != "" {
		var err error
		store, err = cache.Open(cache.DefaultConfig(opts.cachePath))
		if err != nil {
			return err
		}
		defer store.Close()
	}

	reports := make([]report, 0, len(files))
	for _, f := range files {
		r, err := reflectFile(opts, store, f)
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}
	return writeReports(w, opts.format, reports)
}
