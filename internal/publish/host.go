package publish

import (
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cruciblehq/cruxrel/internal/config"
	"github.com/cruciblehq/cruxrel/internal/errs"
	"github.com/cruciblehq/cruxrel/internal/shell"
)

// Creates the host selected by cfg.
//
// Secrets are read from the environment variables named in cfg. An S3 host
// without named variables falls back to the standard AWS and MinIO
// environment variables.
func NewHost(cfg config.Host, runner shell.Runner) (Host, error) {
	switch cfg.Kind {
	case config.HostGitHub:
		return NewGitHub(runner, cfg.GH, cfg.Repository), nil

	case config.HostS3:
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  s3Credentials(cfg),
			Secure: cfg.Secure,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, errs.Wrap(ErrHost, err)
		}
		return NewS3(client, cfg.Bucket, cfg.Prefix), nil

	case config.HostOCI:
		repo, err := NewRepository(cfg.Repository, cfg.PlainHTTP, getenv(cfg.UsernameEnv), getenv(cfg.PasswordEnv))
		if err != nil {
			return nil, errs.Wrap(ErrHost, err)
		}
		return NewOCI(repo, cfg.Repository), nil
	}

	return nil, errs.Wrapf(ErrHost, "unknown kind %q", cfg.Kind)
}

// Returns the credential provider for an S3 host.
func s3Credentials(cfg config.Host) *credentials.Credentials {
	if cfg.AccessKeyEnv == "" && cfg.SecretKeyEnv == "" {
		return credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
		})
	}
	return credentials.NewStaticV4(getenv(cfg.AccessKeyEnv), getenv(cfg.SecretKeyEnv), "")
}

// Returns the value of the named variable, or "" for an empty name.
func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
