package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-mpi/mtt-reporter/pkg/config"
	"github.com/sirupsen/logrus"
)

// Compile-time interface check.
var _ Publisher = (*localPublisher)(nil)

type localPublisher struct {
	log   logrus.FieldLogger
	cfg   *config.LocalPublishConfig
	owner *owner
}

// NewLocalPublisher writes digests below the configured directory.
func NewLocalPublisher(log logrus.FieldLogger, cfg *config.LocalPublishConfig) (Publisher, error) {
	o, err := parseOwner(cfg.Owner)
	if err != nil {
		return nil, err
	}

	return &localPublisher{
		log:   log.WithField("component", "local-publisher"),
		cfg:   cfg,
		owner: o,
	}, nil
}

func (p *localPublisher) Publish(_ context.Context, name string, body []byte) (string, error) {
	target := filepath.Join(p.cfg.Dir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("creating publish directory: %w", err)
	}

	if err := p.owner.chown(filepath.Dir(target)); err != nil {
		p.log.WithError(err).Warn("Failed to chown publish directory")
	}

	// Write then rename so readers never see a partial page.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".digest-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("writing digest: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("closing digest: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("setting digest permissions: %w", err)
	}

	if err := p.owner.chown(tmp.Name()); err != nil {
		p.log.WithError(err).Warn("Failed to chown digest")
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("moving digest into place: %w", err)
	}

	p.log.WithField("path", target).Info("Digest published")

	return target, nil
}
