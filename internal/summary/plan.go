package summary

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cruciblehq/cruxrel/internal/config"
)

// Describes what a release with cfg would do.
func Plan(cfg *config.Config) string {
	lines := []string{
		titleStyle.Render("Release plan for " + cfg.Project),
		field("workspace", cfg.Workspace),
		field("version", fmt.Sprintf("%s (%s)", cfg.Version.File, cfg.Version.Name)),
		field("output", fmt.Sprintf("%s (%s)", cfg.Output, cfg.Archive)),
		field("concurrency", fmt.Sprint(cfg.Concurrency)),
		"",
		labelStyle.Render("Legs"),
		fmt.Sprintf("  %s  native     %s", cfg.Native.Label, strings.Join(cfg.Native.Command, " ")),
	}

	for _, leg := range cfg.Containers {
		lines = append(lines, containerLine(leg))
	}

	lines = append(lines, "", publishLine(cfg.Publish))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func field(name, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-12s", name)) + value
}

func containerLine(leg config.ContainerLeg) string {
	var flags []string
	if leg.IsRequired() {
		flags = append(flags, "required")
	} else {
		flags = append(flags, "optional")
	}
	if leg.Soft {
		flags = append(flags, "soft")
	}
	if leg.Network == config.NetworkHost {
		flags = append(flags, "host network")
	}
	if t := leg.Timeout.Std(); t > 0 {
		flags = append(flags, "timeout "+t.String())
	}

	platform := leg.Platform
	if platform == "" {
		platform = "host platform"
	}

	return fmt.Sprintf("  %s  container  %s on %s, %d steps %s",
		leg.Label, leg.Image, platform, len(leg.Steps),
		mutedStyle.Render("["+strings.Join(flags, ", ")+"]"))
}

func publishLine(p config.Publish) string {
	var dest string
	switch p.Host.Kind {
	case config.HostGitHub:
		dest = "github.com/" + p.Host.Repository
	case config.HostS3:
		dest = fmt.Sprintf("s3://%s/%s", p.Host.Bucket, strings.Trim(p.Host.Prefix, "/"))
	case config.HostOCI:
		dest = p.Host.Repository
	default:
		dest = p.Host.Kind
	}

	kind := "release"
	if p.IsPrerelease() {
		kind = "prerelease"
	}
	return labelStyle.Render("Publish") + fmt.Sprintf(" %q as %s %s", p.Tag, kind, strings.TrimSuffix(dest, "/"))
}
