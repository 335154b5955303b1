package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
project: miner
version:
  file: version.py
static_files: [manual.txt]
native:
  label: Windows
  command: [pyinstaller, build.spec]
  outputs: ["dist/*.exe"]
  timeout: 30m
containers:
  - label: Linux-x86_64
    image: docker.io/library/ubuntu:22.04
    platform: linux/amd64
    network: host
    timeout: 1h
    steps:
      - name: deps
        run: apt-get update
      - name: package
        run: pyinstaller build.spec
    outputs: ["dist/linux/*"]
  - label: Linux-AppImage
    image: docker.io/library/ubuntu:20.04
    required: false
    soft: true
    steps:
      - run: ./appimage.sh
    outputs: ["*.AppImage"]
publish:
  host:
    kind: github
    repository: owner/miner
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cruxrel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sample)
	dir := filepath.Dir(path)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "miner", cfg.Project)
	assert.Equal(t, dir, cfg.Workspace)
	assert.Equal(t, filepath.Join(dir, "dist"), cfg.Output)
	assert.Equal(t, filepath.Join(dir, "version.py"), cfg.Version.File)
	assert.Equal(t, DefaultVersionName, cfg.Version.Name)
	assert.Equal(t, DefaultHashLength, cfg.Version.HashLength)
	assert.Equal(t, []string{filepath.Join(dir, "manual.txt")}, cfg.StaticFiles)
	assert.Equal(t, ArchiveZip, cfg.Archive)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 30*time.Minute, cfg.Native.Timeout.Std())

	require.Len(t, cfg.Containers, 2)
	assert.True(t, cfg.Containers[0].IsRequired())
	assert.Equal(t, NetworkHost, cfg.Containers[0].Network)
	assert.Equal(t, time.Hour, cfg.Containers[0].Timeout.Std())
	assert.False(t, cfg.Containers[1].IsRequired())
	assert.True(t, cfg.Containers[1].Soft)
	assert.Equal(t, NetworkNone, cfg.Containers[1].Network)
	assert.Equal(t, DefaultShell, cfg.Containers[1].Shell)

	assert.Equal(t, DefaultTag, cfg.Publish.Tag)
	assert.Equal(t, DefaultTitle, cfg.Publish.Title)
	assert.True(t, cfg.Publish.IsPrerelease())
	assert.Equal(t, "gh", cfg.Publish.Host.GH)
	assert.Equal(t, DefaultContainerdAddress, cfg.Containerd.Address)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, sample+"\nbogus: true\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestDurationInvalid(t *testing.T) {
	body := strings.Replace(sample, "timeout: 30m", "timeout: soon", 1)
	_, err := Load(writeConfig(t, body))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing version file",
			mutate: func(c *Config) { c.Version.File = "" },
			want:   "version.file is required",
		},
		{
			name:   "bad archive",
			mutate: func(c *Config) { c.Archive = "rar" },
			want:   "archive must be",
		},
		{
			name:   "duplicate label",
			mutate: func(c *Config) { c.Containers[1].Label = c.Containers[0].Label },
			want:   "duplicate leg label",
		},
		{
			name:   "label clashes with native",
			mutate: func(c *Config) { c.Containers[0].Label = c.Native.Label },
			want:   "duplicate leg label",
		},
		{
			name:   "labels differ only in case and spacing",
			mutate: func(c *Config) { c.Containers[1].Label = "linux x86_64" },
			want:   `duplicate leg label "linux x86_64"`,
		},
		{
			name:   "native label clashes after slugging",
			mutate: func(c *Config) { c.Containers[0].Label = "WINDOWS!" },
			want:   `same file name "windows"`,
		},
		{
			name:   "dot dot label",
			mutate: func(c *Config) { c.Containers[0].Label = ".." },
			want:   `leg label ".." has no usable file name`,
		},
		{
			name:   "dot native label",
			mutate: func(c *Config) { c.Native.Label = "." },
			want:   `leg label "." has no usable file name`,
		},
		{
			name:   "bad platform",
			mutate: func(c *Config) { c.Containers[0].Platform = "not//a/platform" },
			want:   "platform",
		},
		{
			name:   "no steps",
			mutate: func(c *Config) { c.Containers[0].Steps = nil },
			want:   "at least one step",
		},
		{
			name:   "unknown host",
			mutate: func(c *Config) { c.Publish.Host.Kind = "ftp" },
			want:   `unknown publish.host.kind "ftp"`,
		},
		{
			name:   "s3 without bucket",
			mutate: func(c *Config) { c.Publish.Host = Host{Kind: HostS3, Endpoint: "minio:9000"} },
			want:   "publish.host.bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sample))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
