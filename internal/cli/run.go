package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/runnerr0/btr/internal/analysis"
	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/config"
	"github.com/runnerr0/btr/internal/detect"
	"github.com/runnerr0/btr/internal/locator"
	"github.com/runnerr0/btr/internal/logging"
	"github.com/runnerr0/btr/internal/report"
	"github.com/runnerr0/btr/internal/timeline"
)

const dumpAll = "all"

// runner carries one invocation from parsed flags to written report.
type runner struct {
	opts      *Options
	windowSet bool
	stdout    io.Writer
	stderr    io.Writer

	// fs is probed by the locator; nil means the host filesystem.
	fs afero.Fs
}

func (r *runner) run() error {
	if _, ok := logging.ParseLevel(r.opts.LogLevel); !ok {
		return fmt.Errorf("unknown --log-level %q (want debug, info, warn or error)", r.opts.LogLevel)
	}
	logger := logging.New(r.levelOr("info"), r.stderr)
	ctx := logging.With(context.Background(), logger)

	if r.opts.InitConfig != "" {
		if err := config.WriteTemplate(r.opts.InitConfig); err != nil {
			return err
		}
		logger.Info("config template written", "path", r.opts.InitConfig)
		return nil
	}

	if r.opts.Browser == "" {
		return errors.New("the required flag `-b, --browser' was not specified")
	}
	browser, err := artifact.ParseBrowser(r.opts.Browser)
	if err != nil {
		return err
	}

	// Refuse an unsupported browser before touching the config or any store.
	var x artifact.Extractor
	if !r.opts.ShowPaths {
		if x, err = artifact.For(browser); err != nil {
			return err
		}
	}

	cfg, err := r.loadConfig(ctx)
	if err != nil {
		return err
	}
	if r.opts.LogLevel == "" && cfg.Logging.Level != "" {
		logger = logging.New(cfg.Logging.Level, r.stderr)
		ctx = logging.With(ctx, logger)
	}

	target, err := r.target()
	if err != nil {
		return err
	}
	window, err := r.window(cfg, target.OS)
	if err != nil {
		return err
	}

	locs, err := locator.New(r.fs).Resolve(ctx, target, browser, cfg.Paths,
		locator.Flags{History: r.opts.History, Cookies: r.opts.Cookies})
	if err != nil {
		return err
	}

	if r.opts.ShowPaths {
		return report.Locations(r.stdout, locs)
	}

	format, err := report.ParseFormat(r.opts.Format)
	if err != nil {
		return err
	}
	reportOpts := report.Options{Format: format, RawTimes: r.opts.RawTimes}

	if r.opts.Dump != "" {
		return r.dump(ctx, logger, x, locs, window.Range, reportOpts)
	}

	res, err := analysis.Run(ctx, x, locs, window)
	if err != nil {
		return err
	}
	logDropped(logger, res.Dropped())
	return r.write(reportOpts, func(w *report.Writer) error {
		return w.Cookies(res.Discrepancies)
	})
}

// dump writes one store, or both for --dump all, without correlation.
func (r *runner) dump(ctx context.Context, logger *slog.Logger, x artifact.Extractor, locs locator.Locations,
	rng timeline.Range, opts report.Options) error {
	var (
		dump *analysis.Dump
		err  error
	)
	if r.opts.Dump == dumpAll {
		dump, err = analysis.DumpAll(ctx, x, locs, rng)
	} else {
		dump, err = analysis.DumpStore(ctx, x, locs, artifact.Kind(r.opts.Dump), rng)
	}
	if err != nil {
		return err
	}
	logDropped(logger, dump.Dropped)

	return r.write(opts, func(w *report.Writer) error {
		switch dump.Kind {
		case artifact.KindHistory:
			return w.History(dump.History)
		case artifact.KindCookies:
			return w.Cookies(dump.Cookies)
		default:
			return w.All(dump.History, dump.Cookies)
		}
	})
}

func (r *runner) levelOr(fallback string) string {
	if r.opts.LogLevel != "" {
		return r.opts.LogLevel
	}
	return fallback
}

// loadConfig reads --config when given, else the default config file when
// one exists.
func (r *runner) loadConfig(ctx context.Context) (*config.Config, error) {
	if r.opts.Config != "" {
		return config.Load(r.opts.Config)
	}
	cfg, found, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	if found {
		logging.From(ctx).Debug("using default config file", "path", config.DefaultConfigPath)
	}
	return cfg, nil
}

func (r *runner) target() (locator.Target, error) {
	t := locator.DefaultTarget()
	if r.opts.OS != "" {
		sys, err := config.ParseOS(r.opts.OS)
		if err != nil {
			return t, err
		}
		t.OS = sys
	}
	if r.opts.User != "" {
		t.User = r.opts.User
	}
	if r.opts.Root != "" {
		t.Root = r.opts.Root
	}
	return t, nil
}

// window builds the detection window. Range bounds are hex FILETIME for
// Windows targets and Unix seconds otherwise. The --window flag wins over
// analysis.window_micros from the config file.
func (r *runner) window(cfg *config.Config, sys config.OS) (detect.Window, error) {
	filetime := sys == config.Windows

	start, err := timeline.ParseBound("--start", r.opts.Start, filetime)
	if err != nil {
		return detect.Window{}, err
	}
	end, err := timeline.ParseBound("--end", r.opts.End, filetime)
	if err != nil {
		return detect.Window{}, err
	}
	if !start.IsZero() && !end.IsZero() && start > end {
		return detect.Window{}, fmt.Errorf("--start (%s) is after --end (%s)", start, end)
	}

	micros := cfg.Analysis.WindowMicros
	if r.windowSet {
		micros = r.opts.Window
	}
	return detect.Window{Micros: micros, Range: timeline.Range{Start: start, End: end}}, nil
}

// write renders to --output when given, else to stdout. The output file is
// only created once the analysis has succeeded.
func (r *runner) write(opts report.Options, render func(*report.Writer) error) error {
	if r.opts.Output == "" {
		return render(report.New(r.stdout, opts))
	}

	f, err := os.Create(r.opts.Output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := render(report.New(f, opts)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func logDropped(logger *slog.Logger, dropped []error) {
	if len(dropped) > 0 {
		logger.Warn("rows dropped for malformed timestamps", "count", len(dropped))
	}
}
