// Package analysis runs one correlation pass: it reads the history and cookie
// stores of a browser concurrently and hands both record sets to the
// discrepancy detector.
package analysis

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/btr/internal/artifact"
	"github.com/runnerr0/btr/internal/detect"
	"github.com/runnerr0/btr/internal/locator"
	"github.com/runnerr0/btr/internal/logging"
	"github.com/runnerr0/btr/internal/timeline"
)

// Result is the outcome of a correlation run.
type Result struct {
	History       *artifact.HistorySet
	Cookies       *artifact.CookieSet
	Discrepancies []artifact.CookieRecord
	// Now is the instant an open range end was resolved to.
	Now timeline.Timestamp
}

// Dropped returns every per-row diagnostic from both stores.
func (r *Result) Dropped() []error {
	out := make([]error, 0, len(r.History.Dropped)+len(r.Cookies.Dropped))
	out = append(out, r.History.Dropped...)
	return append(out, r.Cookies.Dropped...)
}

// Run extracts both stores concurrently and detects uncorroborated cookies.
func Run(ctx context.Context, x artifact.Extractor, locs locator.Locations, w detect.Window) (*Result, error) {
	return RunAt(ctx, x, locs, w, timeline.Now())
}

// RunAt is Run with "now" pinned.
func RunAt(ctx context.Context, x artifact.Extractor, locs locator.Locations, w detect.Window, now timeline.Timestamp) (*Result, error) {
	history, cookies, err := extract(ctx, x, locs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		History:       history,
		Cookies:       cookies,
		Discrepancies: detect.DetectAt(history.Records, cookies.Records, w, now),
		Now:           now,
	}

	logging.From(ctx).Info("analysis complete",
		"browser", x.Browser(),
		"history", len(history.Records),
		"cookies", len(cookies.Records),
		"discrepancies", len(res.Discrepancies),
		"dropped", len(history.Dropped)+len(cookies.Dropped),
		"window_us", w.Micros)
	return res, nil
}

// extract reads both stores concurrently. If either read fails the other is
// cancelled and the first error is returned.
func extract(ctx context.Context, x artifact.Extractor, locs locator.Locations) (*artifact.HistorySet, *artifact.CookieSet, error) {
	var history *artifact.HistorySet
	var cookies *artifact.CookieSet

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = x.ExtractHistory(gctx, locs.History.Source)
		return err
	})
	g.Go(func() error {
		var err error
		cookies, err = x.ExtractCookies(gctx, locs.Cookies.Source)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return history, cookies, nil
}

// Dump is the record set of one or both stores. Kind names the store of a
// single-store dump and is empty for DumpAll.
type Dump struct {
	Kind    artifact.Kind
	History []artifact.HistoryRecord
	Cookies []artifact.CookieRecord
	Dropped []error
}

// DumpStore reads one store without correlation. A bounded r limits history
// to visits inside it; cookies are never range-filtered, matching what the
// detector reports.
func DumpStore(ctx context.Context, x artifact.Extractor, locs locator.Locations, kind artifact.Kind, r timeline.Range) (*Dump, error) {
	switch kind {
	case artifact.KindHistory:
		set, err := x.ExtractHistory(ctx, locs.History.Source)
		if err != nil {
			return nil, err
		}
		return &Dump{Kind: kind, History: dumpHistory(set.Records, r), Dropped: set.Dropped}, nil

	case artifact.KindCookies:
		set, err := x.ExtractCookies(ctx, locs.Cookies.Source)
		if err != nil {
			return nil, err
		}
		return &Dump{Kind: kind, Cookies: set.Records, Dropped: set.Dropped}, nil

	default:
		return nil, goerr.New("store kind cannot be dumped", goerr.V("kind", kind))
	}
}

// DumpAll reads the history and cookie stores concurrently without
// correlation, with the same range rule as DumpStore.
func DumpAll(ctx context.Context, x artifact.Extractor, locs locator.Locations, r timeline.Range) (*Dump, error) {
	history, cookies, err := extract(ctx, x, locs)
	if err != nil {
		return nil, err
	}

	dropped := make([]error, 0, len(history.Dropped)+len(cookies.Dropped))
	dropped = append(dropped, history.Dropped...)
	return &Dump{
		History: dumpHistory(history.Records, r),
		Cookies: cookies.Records,
		Dropped: append(dropped, cookies.Dropped...),
	}, nil
}

func dumpHistory(records []artifact.HistoryRecord, r timeline.Range) []artifact.HistoryRecord {
	if r.IsUnbounded() {
		return records
	}
	return timeline.FilterNow(records, r, func(h artifact.HistoryRecord) timeline.Timestamp { return h.VisitedAt })
}
