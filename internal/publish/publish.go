package publish

import (
	"bytes"
	"context"
	"log/slog"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cruciblehq/cruxrel/internal/artifact"
	"github.com/cruciblehq/cruxrel/internal/errs"
)

// Fixed release notes. Only the build time and commit vary between runs.
var notesTemplate = template.Must(template.New("notes").Parse(`Automated development build. Not intended for production use.

Built: {{ .Timestamp.UTC.Format "2006-01-02 15:04:05 UTC" }}
Commit: {{ .Commit }}
`))

// A release to create on a host.
type Release struct {
	Tag        string
	Title      string
	Notes      string
	Target     string // Full commit hash the tag points at.
	Prerelease bool
	Assets     []string // Archive paths, in leg order.
}

// A remote release host.
type Host interface {

	// Reports whether a release with tag exists.
	ReleaseExists(ctx context.Context, tag string) (bool, error)

	// Deletes the release with tag, and the tag itself when deleteTag is set.
	DeleteRelease(ctx context.Context, tag string, deleteTag bool) error

	// Creates a release with all its assets and returns its URL.
	CreateRelease(ctx context.Context, rel Release) (string, error)
}

// Identifies the build being published.
type Build struct {
	Commit    string    // Full commit hash.
	Timestamp time.Time // Build time.
}

// Controls publishing.
type Options struct {
	Tag        string
	Title      string
	Prerelease bool
}

// Outcome of a publish attempt.
type Result struct {
	Tag       string
	URL       string              // Set on success.
	Uploaded  []artifact.Artifact // Artifacts carried by the new release.
	Replaced  bool                // An existing release was deleted.
	Regressed bool                // The old release was deleted but the new one was not created.
}

// Replaces the rolling release on a host.
type Publisher struct {
	host Host
	opts Options
}

// Creates a new [Publisher].
func New(host Host, opts Options) *Publisher {
	return &Publisher{host: host, opts: opts}
}

// Returns the release notes for build.
func Notes(build Build) (string, error) {
	var buf bytes.Buffer
	if err := notesTemplate.Execute(&buf, build); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Deletes any existing release with the configured tag and creates a new one
// carrying every artifact in set.
//
// The returned result is non-nil even on failure, so callers can report a
// regression. All failures wrap [ErrPublish].
func (p *Publisher) Publish(ctx context.Context, set *artifact.Set, build Build) (*Result, error) {
	result := &Result{Tag: p.opts.Tag}
	log := slog.With("tag", p.opts.Tag)

	items := set.Items()
	if len(items) == 0 {
		return result, errs.Wrapf(ErrPublish, "no artifacts to publish")
	}

	notes, err := Notes(build)
	if err != nil {
		return result, errs.Wrap(ErrPublish, err)
	}

	exists, err := p.host.ReleaseExists(ctx, p.opts.Tag)
	if err != nil {
		return result, errs.Wrapf(ErrPublish, "look up release: %w", err)
	}

	if exists {
		log.Info("deleting existing release")
		if err := p.host.DeleteRelease(ctx, p.opts.Tag, true); err != nil {
			return result, errs.Wrapf(ErrPublish, "delete release: %w", err)
		}
		result.Replaced = true
	}

	assets := make([]string, len(items))
	for i, a := range items {
		assets[i] = a.Path
	}

	log.Info("creating release", "assets", len(assets), "size", humanize.Bytes(uint64(set.TotalSize())))

	url, err := p.host.CreateRelease(ctx, Release{
		Tag:        p.opts.Tag,
		Title:      p.opts.Title,
		Notes:      notes,
		Target:     build.Commit,
		Prerelease: p.opts.Prerelease,
		Assets:     assets,
	})
	if err != nil {
		result.Regressed = result.Replaced
		if result.Regressed {
			log.Error("release deleted but not recreated", "error", err)
		}
		return result, errs.Wrapf(ErrPublish, "create release: %w", err)
	}

	for _, a := range items {
		log.Info("uploaded artifact", "leg", a.Label, "asset", a.Path, "size", humanize.Bytes(uint64(a.Size)))
	}

	result.URL = url
	result.Uploaded = items
	return result, nil
}
