package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

const (
	DefaultTag                 = "dev-build"
	DefaultTitle               = "Development build"
	DefaultOutput              = "dist"
	DefaultVersionName         = "__version__"
	DefaultHashLength          = 7
	DefaultContainerdAddress   = "/run/containerd/containerd.sock"
	DefaultContainerdNamespace = "cruxrel"
	DefaultShell               = "/bin/sh"
	DefaultNativeLabel         = "native"

	ArchiveZip   = "zip"
	ArchiveTarGz = "tar.gz"

	HostGitHub = "github"
	HostS3     = "s3"
	HostOCI    = "oci"

	NetworkHost = "host"
	NetworkNone = "none"
)

// Pipeline description.
type Config struct {
	Project     string         `yaml:"project"`      // Prefix for archive names.
	Workspace   string         `yaml:"workspace"`    // Source tree mounted into every leg.
	Output      string         `yaml:"output"`       // Directory receiving staging dirs and archives.
	Archive     string         `yaml:"archive"`      // Archive format, "zip" or "tar.gz".
	StaticFiles []string       `yaml:"static_files"` // Files shipped with every platform (e.g. a manual).
	Transient   []string       `yaml:"transient"`    // Extra build directories removed on cleanup.
	Concurrency int            `yaml:"concurrency"`  // Maximum container legs run at once.
	Version     Version        `yaml:"version"`
	Native      NativeLeg      `yaml:"native"`
	Containers  []ContainerLeg `yaml:"containers"`
	Containerd  Containerd     `yaml:"containerd"`
	Publish     Publish        `yaml:"publish"`
}

// Location and shape of the version declaration.
type Version struct {
	File       string `yaml:"file"`        // Path to the file holding the declaration.
	Name       string `yaml:"name"`        // Identifier of the assignment to stamp.
	Strict     bool   `yaml:"strict"`      // Require the base version to be semver.
	HashLength int    `yaml:"hash_length"` // Length of the abbreviated commit hash.
}

// The leg built on the host with the native packager.
type NativeLeg struct {
	Label   string            `yaml:"label"`
	Command []string          `yaml:"command"` // Packager argv, run in the workspace.
	Env     map[string]string `yaml:"env"`
	Outputs []string          `yaml:"outputs"` // Glob patterns relative to the workspace.
	Timeout Duration          `yaml:"timeout"`
}

// A leg built inside a disposable container.
type ContainerLeg struct {
	Label       string            `yaml:"label"`
	Image       string            `yaml:"image"`    // Pinned base image reference.
	Platform    string            `yaml:"platform"` // OCI platform, defaults to the host.
	Required    *bool             `yaml:"required"` // Fatal failure aborts the pipeline. Defaults to true.
	Soft        bool              `yaml:"soft"`     // Non-zero exit is a soft failure.
	Network     string            `yaml:"network"`  // "host" or "none".
	Shell       string            `yaml:"shell"`
	Timeout     Duration          `yaml:"timeout"`
	Env         map[string]string `yaml:"env"`
	Steps       []Step            `yaml:"steps"`
	Outputs     []string          `yaml:"outputs"`
	RemoveImage bool              `yaml:"remove_image"`
}

// Returns whether a fatal failure of this leg aborts the pipeline.
func (l ContainerLeg) IsRequired() bool {
	return l.Required == nil || *l.Required
}

// A named recipe step.
//
// A step without Run only carries modifiers, which then persist for the
// remaining steps of the leg.
type Step struct {
	Name    string            `yaml:"name"`
	Run     string            `yaml:"run"`
	If      string            `yaml:"if"` // Guard script; the step runs only if it exits 0.
	Shell   string            `yaml:"shell"`
	Workdir string            `yaml:"workdir"`
	Env     map[string]string `yaml:"env"`
}

// Connection to the containerd daemon.
type Containerd struct {
	Address     string `yaml:"address"`
	Namespace   string `yaml:"namespace"`
	Snapshotter string `yaml:"snapshotter"` // Defaults to overlayfs.
}

// Rolling release settings.
type Publish struct {
	Tag        string `yaml:"tag"`
	Title      string `yaml:"title"`
	Prerelease *bool  `yaml:"prerelease"`
	Host       Host   `yaml:"host"`
}

// Returns whether the release is flagged as a prerelease. Defaults to true.
func (p Publish) IsPrerelease() bool {
	return p.Prerelease == nil || *p.Prerelease
}

// Remote release host. Only the fields of the selected kind are used.
type Host struct {
	Kind       string `yaml:"kind"`       // "github", "s3" or "oci".
	Repository string `yaml:"repository"` // github: owner/name. oci: registry/repository.
	GH         string `yaml:"gh"`         // github: path to the gh binary.

	Endpoint     string `yaml:"endpoint"` // s3: host[:port].
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Secure       bool   `yaml:"secure"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`

	UsernameEnv string `yaml:"username_env"` // oci: registry credentials.
	PasswordEnv string `yaml:"password_env"`
	PlainHTTP   bool   `yaml:"plain_http"`
}

// A time.Duration that unmarshals from Go duration strings ("90s", "1h").
type Duration time.Duration

// Parses a duration scalar.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// Returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Reads, defaults and validates the pipeline file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(ErrConfig, err)
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errs.Wrap(ErrConfig, err)
	}

	cfg.applyDefaults(dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decodes a pipeline description. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(ErrConfig, err)
	}
	return &cfg, nil
}

// Fills unset fields and resolves relative paths.
//
// The workspace is resolved against base; output, the version file, static
// files and transient paths against the workspace.
func (c *Config) applyDefaults(base string) {
	if c.Workspace == "" {
		c.Workspace = "."
	}
	c.Workspace = resolve(base, c.Workspace)

	if c.Output == "" {
		c.Output = DefaultOutput
	}
	c.Output = resolve(c.Workspace, c.Output)

	if c.Project == "" {
		c.Project = filepath.Base(c.Workspace)
	}
	if c.Archive == "" {
		c.Archive = ArchiveZip
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}

	if c.Version.Name == "" {
		c.Version.Name = DefaultVersionName
	}
	if c.Version.HashLength == 0 {
		c.Version.HashLength = DefaultHashLength
	}
	if c.Version.File != "" {
		c.Version.File = resolve(c.Workspace, c.Version.File)
	}

	for i, f := range c.StaticFiles {
		c.StaticFiles[i] = resolve(c.Workspace, f)
	}
	for i, p := range c.Transient {
		c.Transient[i] = resolve(c.Workspace, p)
	}

	if c.Native.Label == "" {
		c.Native.Label = DefaultNativeLabel
	}

	for i := range c.Containers {
		leg := &c.Containers[i]
		if leg.Shell == "" {
			leg.Shell = DefaultShell
		}
		if leg.Network == "" {
			leg.Network = NetworkNone
		}
	}

	if c.Containerd.Address == "" {
		c.Containerd.Address = DefaultContainerdAddress
	}
	if c.Containerd.Namespace == "" {
		c.Containerd.Namespace = DefaultContainerdNamespace
	}

	if c.Publish.Tag == "" {
		c.Publish.Tag = DefaultTag
	}
	if c.Publish.Title == "" {
		c.Publish.Title = DefaultTitle
	}
	if c.Publish.Host.Kind == HostGitHub && c.Publish.Host.GH == "" {
		c.Publish.Host.GH = "gh"
	}
}

// Joins p onto base unless p is already absolute.
func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
