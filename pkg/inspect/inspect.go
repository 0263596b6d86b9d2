// Package inspect runs a scanned payload through classification, the
// internal list, the reputation scan and the warning policy.
package inspect

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
	"github.com/sw33tLie/qrsafe/pkg/warning"
)

type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Inspector wires the pieces together. Strategy may be nil when reputation
// scanning is not configured; Resolver may be nil to skip the internal list.
type Inspector struct {
	Strategy reputation.Strategy
	Resolver internallist.Resolver
	Log      Logger
}

type Options struct {
	// Analyze runs the reputation scan for URLs.
	Analyze bool
	// Previous is a verdict from an earlier analysis of the same payload,
	// used when Analyze is false.
	Previous *reputation.Verdict
	Settings warning.Settings
}

// Report is everything known about one payload after inspection.
type Report struct {
	Classified   payload.Classified   `json:"classified"`
	Analysis     *reputation.Result   `json:"analysis,omitempty"`
	InternalList *internallist.Result `json:"internalListResult,omitempty"`
	Decision     warning.Decision     `json:"decision"`
}

// Inspect never fails for non-URL payloads. For URLs only a reputation scan
// failure is returned as an error; internal list failures are logged.
func (i *Inspector) Inspect(ctx context.Context, raw string, opts Options) (*Report, error) {
	log := i.Log
	if log == nil {
		log = nopLogger{}
	}

	report := &Report{Classified: payload.Classify(raw)}
	u, isURL := report.Classified.Classification.(payload.URL)
	if !isURL {
		report.Decision = warning.Decide(warning.Input{Kind: report.Classified.Classification.Kind(), Settings: opts.Settings})
		return report, nil
	}

	analyze := opts.Analyze && opts.Settings.UseReputationScan && i.Strategy != nil
	if opts.Analyze && !analyze {
		log.Infof("Reputation scan skipped for %s: scanning is disabled or not configured", u.NormalizedURL)
	}

	var (
		list     *internallist.Result
		analysis *reputation.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	if i.Resolver != nil {
		g.Go(func() error {
			list = i.Resolver.Resolve(gctx, u.NormalizedURL)
			if list == nil {
				log.Warnf("Internal list lookup unavailable for %s", u.NormalizedURL)
			}
			return nil
		})
	}
	if analyze {
		g.Go(func() error {
			res, err := i.Strategy.Scan(gctx, u.NormalizedURL)
			if err != nil {
				return err
			}
			analysis = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if analysis != nil {
		if analysis.InternalList == nil && list != nil {
			analysis = analysis.WithInternalList(list)
		}
		if list == nil {
			list = analysis.InternalList
		}
	}
	report.Analysis = analysis
	report.InternalList = list

	in := warning.Input{
		Kind:         payload.KindURL,
		InternalList: list,
		Settings:     opts.Settings,
	}
	switch {
	case analysis != nil:
		v := analysis.Verdict
		in.Verdict = &v
	case opts.Previous != nil:
		in.Verdict = opts.Previous
	}
	report.Decision = warning.Decide(in)
	return report, nil
}
