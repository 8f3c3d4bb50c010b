// Package report renders plans and deployment outcomes for the terminal.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// Options controls rendering.
type Options struct {
	// Verbose includes items that need no I/O (Unchanged, Ignore, Unknown)
	Verbose bool

	// Color enables ANSI colors
	Color bool
}

var actionColors = map[synctypes.Action]text.Colors{
	synctypes.ActionUnknown:   {text.FgYellow},
	synctypes.ActionUnchanged: {text.Reset},
	synctypes.ActionIgnore:    {text.Reset},
	synctypes.ActionCreate:    {text.FgMagenta},
	synctypes.ActionUpdate:    {text.FgMagenta},
	synctypes.ActionDelete:    {text.FgRed},
}

// Plan writes one row per plan item.
func Plan(w io.Writer, plan *synctypes.Plan, opts Options) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Action", "Invalidate", "Cache", "Data", "Key", "Size", "Type"})

	for _, item := range plan.Items {
		if !opts.Verbose && !item.Action.Mutating() {
			continue
		}
		t.AppendRow(row(item, opts))
	}

	stats := plan.Stats()
	t.AppendFooter(table.Row{"", "", "", "", summary(stats), fmt.Sprintf("%db", stats.Bytes), ""})
	t.Render()
}

func row(item *synctypes.PlanItem, opts Options) table.Row {
	action := item.Action.String()
	if opts.Color {
		action = actionColors[item.Action].Sprint(action)
	}

	var invalidate string
	if item.Invalidate {
		invalidate = "Invalidate"
		if opts.Color {
			invalidate = text.FgMagenta.Sprint(invalidate)
		}
	}

	var size, contentType string
	if item.Local != nil {
		size = fmt.Sprintf("%db", item.Size())
		contentType = item.ContentType
	}

	var data string
	if item.Inline() {
		data = "DATA"
	}

	return table.Row{action, invalidate, cacheLabel(item), data, item.Key, size, contentType}
}

// cacheLabel is "Cached" for unchanged cacheable items and the quoted
// cache-control value for other cacheable items.
func cacheLabel(item *synctypes.PlanItem) string {
	switch {
	case !item.Cache:
		return ""
	case item.Action == synctypes.ActionUnchanged:
		return "Cached"
	default:
		return fmt.Sprintf("%q", item.CacheControl)
	}
}

func summary(stats synctypes.PlanStats) string {
	return fmt.Sprintf("%d create, %d update, %d delete, %d unchanged, %d unknown",
		stats.ByAction[synctypes.ActionCreate],
		stats.ByAction[synctypes.ActionUpdate],
		stats.ByAction[synctypes.ActionDelete],
		stats.ByAction[synctypes.ActionUnchanged],
		stats.ByAction[synctypes.ActionUnknown],
	)
}

// Invalidations writes the CDN paths, one per line, under a heading.
func Invalidations(w io.Writer, paths []string, distributionIDs []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintln(w, "CloudFront invalidations:")
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
	if len(distributionIDs) == 0 {
		fmt.Fprintln(w, "  (no distribution id configured)")
	}
}

// Result writes the deployment outcome.
func Result(w io.Writer, result *synctypes.DeployResult, opts Options) {
	status := string(result.Status)
	if result.DryRun && result.Status == synctypes.DeployStatusSuccess {
		status += " (dry run)"
	}
	if opts.Color {
		status = statusColor(result.Status).Sprint(status)
	}
	fmt.Fprintf(w, "%s: %s\n", result.Target, status)

	if e := result.Execution; e != nil {
		fmt.Fprintf(w, "  uploaded %d (%db), deleted %d, skipped %d, failed %d in %s\n",
			e.Uploaded, e.BytesUploaded, e.Deleted, e.Skipped, e.Failed, e.Duration.Round(time.Millisecond))
	}
}

func statusColor(status synctypes.DeployStatus) text.Color {
	switch status {
	case synctypes.DeployStatusSuccess:
		return text.FgGreen
	case synctypes.DeployStatusFailed:
		return text.FgRed
	case synctypes.DeployStatusCanceled:
		return text.FgYellow
	default:
		return text.FgHiBlack
	}
}
