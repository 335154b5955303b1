package summary

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/cruciblehq/cruxrel/internal/pipeline"
)

// Renders the outcome of a release run.
func Render(rep *pipeline.Report) string {
	sections := []string{
		header(rep),
		legs(rep),
		published(rep),
	}
	if s := softFailures(rep); s != "" {
		sections = append(sections, s)
	}
	if rep.CleanupErr != nil {
		sections = append(sections, failStyle.Render("Cleanup failed: ")+rep.CleanupErr.Error())
	}
	sections = append(sections, outcome(rep))

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func header(rep *pipeline.Report) string {
	rc := rep.Context
	v := rc.BuildVersion
	if v == "" {
		v = "(not stamped)"
	}

	title := titleStyle.Render("Release " + v)
	var facts []string
	if rep.RunID != "" {
		facts = append(facts, "run "+rep.RunID)
	}
	if rc.ShortHash != "" {
		facts = append(facts, "commit "+rc.ShortHash)
	}
	if rc.Branch != "" {
		facts = append(facts, "branch "+rc.Branch)
	}
	if len(facts) == 0 {
		return title
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render(strings.Join(facts, " · ")))
}

func legs(rep *pipeline.Report) string {
	width := 0
	for _, leg := range rep.Legs {
		width = max(width, len(leg.Label))
	}

	lines := []string{labelStyle.Render("Legs")}
	for _, leg := range rep.Legs {
		lines = append(lines, legLine(leg, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func legLine(leg pipeline.LegReport, width int) string {
	kind := "container"
	if leg.Native {
		kind = "native"
	}

	line := fmt.Sprintf("  %-*s  %-9s  %s", width, leg.Label, kind, status(leg.Status))
	if leg.Artifact != nil {
		line += fmt.Sprintf("  %s (%s)", filepath.Base(leg.Artifact.Path), humanize.Bytes(uint64(leg.Artifact.Size)))
	}
	if leg.Duration > 0 {
		line += mutedStyle.Render("  " + leg.Duration.Round(time.Second).String())
	}
	if leg.Err != nil && leg.Status == pipeline.LegFailed {
		line += "\n    " + failStyle.Render(leg.Err.Error())
	}
	return line
}

func status(s pipeline.LegStatus) string {
	switch s {
	case pipeline.LegSucceeded:
		return okStyle.Render(s.String())
	case pipeline.LegSoftFailed, pipeline.LegCancelled:
		return warnStyle.Render(s.String())
	case pipeline.LegFailed:
		return failStyle.Render(s.String())
	}
	return mutedStyle.Render(s.String())
}

func published(rep *pipeline.Report) string {
	label := labelStyle.Render("Release")

	switch {
	case rep.SkipPublish:
		return label + " " + mutedStyle.Render("publishing skipped")

	case rep.PublishErr != nil:
		lines := []string{label + " " + failStyle.Render("not published: ") + rep.PublishErr.Error()}
		if rep.Publish != nil && rep.Publish.Regressed {
			lines = append(lines, failStyle.Render(fmt.Sprintf(
				"  the previous %q release was deleted and not replaced", rep.Publish.Tag)))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)

	case rep.Publish != nil && rep.Publish.URL != "":
		var total int64
		for _, a := range rep.Publish.Uploaded {
			total += a.Size
		}
		return fmt.Sprintf("%s %s %s", label, okStyle.Render(rep.Publish.URL),
			mutedStyle.Render(fmt.Sprintf("(%d assets, %s)", len(rep.Publish.Uploaded), humanize.Bytes(uint64(total)))))
	}

	return label + " " + mutedStyle.Render("not published")
}

func softFailures(rep *pipeline.Report) string {
	if len(rep.SoftFailures) == 0 {
		return ""
	}
	lines := []string{warnStyle.Render(fmt.Sprintf("Soft failures (%d)", len(rep.SoftFailures)))}
	for _, err := range rep.SoftFailures {
		lines = append(lines, "  - "+err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func outcome(rep *pipeline.Report) string {
	final := rep.Final().String()
	switch {
	case rep.Cancelled:
		return failStyle.Render("Cancelled") + mutedStyle.Render(" ("+final+")")
	case rep.Err != nil:
		return failStyle.Render("Failed: ") + rep.Err.Error() + mutedStyle.Render(" ("+final+")")
	}
	return okStyle.Render("Done") + mutedStyle.Render(" ("+final+")")
}
