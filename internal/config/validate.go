package config

import (
	"errors"
	"fmt"

	"github.com/containerd/platforms"

	"github.com/cruciblehq/cruxrel/internal/artifact"
)

// Checks the configuration for consistency.
//
// All problems are reported together, each wrapped with [ErrInvalid].
func (c *Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if c.Version.File == "" {
		add("version.file is required")
	}
	if c.Version.HashLength < 4 || c.Version.HashLength > 40 {
		add("version.hash_length must be between 4 and 40, got %d", c.Version.HashLength)
	}

	switch c.Archive {
	case ArchiveZip, ArchiveTarGz:
	default:
		add("archive must be %q or %q, got %q", ArchiveZip, ArchiveTarGz, c.Archive)
	}

	if len(c.Native.Command) == 0 {
		add("native.command is required")
	}
	if len(c.Native.Outputs) == 0 {
		add("native.outputs is required")
	}

	// Labels name staging directories and archives, so they must stay
	// distinct after slugging.
	slugs := map[string]string{}
	claim := func(label string) {
		slug := artifact.Slug(label)
		if slug == "" {
			add("leg label %q has no usable file name", label)
			return
		}
		if prev, ok := slugs[slug]; ok {
			add("duplicate leg label %q: same file name %q as %q", label, slug, prev)
			return
		}
		slugs[slug] = label
	}
	claim(c.Native.Label)

	for i, leg := range c.Containers {
		name := leg.Label
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			add("containers[%d].label is required", i)
		} else {
			claim(leg.Label)
		}

		if leg.Image == "" {
			add("leg %s: image is required", name)
		}
		if leg.Platform != "" {
			if _, err := platforms.Parse(leg.Platform); err != nil {
				add("leg %s: platform %q: %v", name, leg.Platform, err)
			}
		}
		if leg.Network != NetworkHost && leg.Network != NetworkNone {
			add("leg %s: network must be %q or %q", name, NetworkHost, NetworkNone)
		}
		if len(leg.Steps) == 0 {
			add("leg %s: at least one step is required", name)
		}
		for j, step := range leg.Steps {
			if step.If != "" && step.Run == "" {
				add("leg %s: step %d has an if guard but nothing to run", name, j+1)
			}
		}
		if len(leg.Outputs) == 0 {
			add("leg %s: outputs is required", name)
		}
		if leg.Timeout < 0 {
			add("leg %s: timeout must not be negative", name)
		}
	}

	switch c.Publish.Host.Kind {
	case HostGitHub:
		if c.Publish.Host.Repository == "" {
			add("publish.host.repository is required for github")
		}
	case HostS3:
		if c.Publish.Host.Endpoint == "" || c.Publish.Host.Bucket == "" {
			add("publish.host.endpoint and publish.host.bucket are required for s3")
		}
	case HostOCI:
		if c.Publish.Host.Repository == "" {
			add("publish.host.repository is required for oci")
		}
	case "":
		add("publish.host.kind is required")
	default:
		add("unknown publish.host.kind %q", c.Publish.Host.Kind)
	}

	return errors.Join(problems...)
}
