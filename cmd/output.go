package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sw33tLie/qrsafe/pkg/history"
	"github.com/sw33tLie/qrsafe/pkg/internallist"
	"github.com/sw33tLie/qrsafe/pkg/inspect"
	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
	"github.com/sw33tLie/qrsafe/pkg/warning"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printClassified(w io.Writer, c payload.Classified) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Kind:\t%s\n", c.Classification.Kind())
	fmt.Fprintf(tw, "Title:\t%s\n", c.Summary.Title)
	if c.Summary.Subtitle != "" {
		fmt.Fprintf(tw, "Subtitle:\t%s\n", c.Summary.Subtitle)
	}
	for _, h := range c.Summary.Highlights {
		fmt.Fprintf(tw, "  %s:\t%s\n", h.Label, h.Value)
	}
	if action := payload.Action(c.Classification); action != "" {
		fmt.Fprintf(tw, "Action:\t%s\n", action)
	}
	tw.Flush()
}

func printAnalysis(w io.Writer, r *reputation.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "URL:\t%s\n", r.SubmittedURL)
	fmt.Fprintf(tw, "Analysis:\t%s (%s)\n", r.ID, r.Provider)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Verdict:\t%s\n", strings.ToUpper(string(r.Verdict)))
	fmt.Fprintf(tw, "Stats:\tmalicious %d, suspicious %d, harmless %d, undetected %d, timeout %d\n",
		r.Stats.Malicious, r.Stats.Suspicious, r.Stats.Harmless, r.Stats.Undetected, r.Stats.Timeout)
	if r.StartedAt > 0 {
		fmt.Fprintf(tw, "Started:\t%s\n", time.UnixMilli(r.StartedAt).UTC().Format(time.RFC3339))
	}
	if r.DetailsURL != "" {
		fmt.Fprintf(tw, "Details:\t%s\n", r.DetailsURL)
	}
	if r.InternalList != nil {
		fmt.Fprintf(tw, "Internal list:\t%s\n", describeList(r.InternalList))
	}
	tw.Flush()
	printFindings(w, r.EngineFindings)
}

func printFindings(w io.Writer, findings []reputation.EngineFinding) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintln(w, "Findings:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range findings {
		fmt.Fprintf(tw, "  [%s]\t%s\t%s\t%s\n", f.Tone, f.Engine, f.CategoryLabel, f.Threat)
	}
	tw.Flush()
}

func describeList(r *internallist.Result) string {
	if r == nil {
		return "unavailable"
	}
	if !r.Listed {
		return "not listed"
	}
	out := "listed"
	if r.ServiceName != nil {
		out += " as " + *r.ServiceName
	}
	if r.Category != nil && *r.Category != "" {
		out += " (" + *r.Category + ")"
	}
	if r.Notice != nil && *r.Notice != "" {
		out += ": " + *r.Notice
	}
	return out
}

func printDecision(w io.Writer, d warning.Decision) {
	if !d.Warn {
		fmt.Fprintln(w, "Decision: proceed")
		return
	}
	fmt.Fprintf(w, "Decision: confirm before proceeding [%s] %s\n", d.Tone, d.Title)
	for _, line := range strings.Split(d.Message, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func printReport(w io.Writer, r *inspect.Report) {
	printClassified(w, r.Classified)
	if r.Classified.Classification.Kind() == payload.KindURL {
		fmt.Fprintln(w)
		if r.Analysis != nil {
			printAnalysis(w, r.Analysis)
		} else {
			fmt.Fprintf(w, "Internal list: %s\n", describeList(r.InternalList))
		}
	}
	fmt.Fprintln(w)
	printDecision(w, r.Decision)
}

func printHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "History is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "SCANNED\tKIND\tVERDICT\tID\t")
	for _, e := range entries {
		verdict := "-"
		if e.Analysis != nil {
			verdict = string(e.Analysis.Verdict)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", e.ScannedAt.Local().Format("2006-01-02 15:04:05"), e.Payload.Classification.Kind(), verdict, e.ID)
	}
	tw.Flush()
}

func printEntry(w io.Writer, e history.Entry) {
	fmt.Fprintf(w, "ID:      %s\n", e.ID)
	fmt.Fprintf(w, "Scanned: %s\n", e.ScannedAt.Local().Format("2006-01-02 15:04:05"))
	printClassified(w, e.Payload)
	if a := e.Analysis; a != nil {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Analyzed:\t%s (%s, snapshot %s)\n", a.LastAnalyzedAt.Local().Format("2006-01-02 15:04:05"), a.Provider, a.SnapshotID)
		fmt.Fprintf(tw, "Status:\t%s\n", a.Status)
		fmt.Fprintf(tw, "Verdict:\t%s\n", strings.ToUpper(string(a.Verdict)))
		if a.DetailsURL != "" {
			fmt.Fprintf(tw, "Details:\t%s\n", a.DetailsURL)
		}
		if a.InternalList != nil {
			fmt.Fprintf(tw, "Internal list:\t%s\n", describeList(a.InternalList))
		}
		tw.Flush()
		printFindings(w, a.EngineFindings)
	}
}
