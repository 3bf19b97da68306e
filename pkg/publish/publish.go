package publish

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/open-mpi/mtt-reporter/pkg/config"
	"github.com/sirupsen/logrus"
)

// Publisher stores a rendered digest page.
type Publisher interface {
	// Publish writes body under name and returns where it ended up.
	Publish(ctx context.Context, name string, body []byte) (string, error)
}

// New returns a publisher for every enabled target. It returns nil when
// publishing is disabled.
func New(log logrus.FieldLogger, cfg *config.PublishConfig) ([]Publisher, error) {
	var pubs []Publisher

	if cfg.Local != nil && cfg.Local.Enabled {
		local, err := NewLocalPublisher(log, cfg.Local)
		if err != nil {
			return nil, fmt.Errorf("creating local publisher: %w", err)
		}

		pubs = append(pubs, local)
	}

	if cfg.S3 != nil && cfg.S3.Enabled {
		s3p, err := NewS3Publisher(log, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("creating s3 publisher: %w", err)
		}

		pubs = append(pubs, s3p)
	}

	return pubs, nil
}

// DigestName returns the object name of a digest: the window, then the
// UTC date it was produced on.
func DigestName(window, date string) string {
	return path.Join("summary", strings.ToLower(window), date+".html")
}
