package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/open-mpi/mtt-reporter/pkg/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store provides read access to the MTT results database.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	// Driver returns the configured driver name ("postgres" or "sqlite").
	Driver() string

	// WithConn runs fn on a single pinned connection so that session-local
	// objects such as temporary tables stay visible across statements. The
	// returned error is fn's error or the failure to obtain a connection.
	WithConn(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Distinct returns the sorted distinct non-empty values of a SQL
	// expression evaluated over the once table.
	Distinct(ctx context.Context, expr string) ([]string, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and, when enabled, runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening results database: %w", err)
	}

	s.db = db

	// SQLite keeps one database per connection for :memory: and serializes
	// writers anyway.
	if s.cfg.Driver == "sqlite" {
		sqlDB, err := s.db.DB()
		if err != nil {
			return fmt.Errorf("getting underlying db: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if s.cfg.AutoMigrate {
		if err := s.db.WithContext(ctx).AutoMigrate(
			&Once{},
			&Install{},
			&Build{},
			&Run{},
		); err != nil {
			return fmt.Errorf("running results migrations: %w", err)
		}
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Results database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

func (s *store) Driver() string {
	return s.cfg.Driver
}

// WithConn runs fn on one pooled connection for its whole duration. Each
// statement issued through tx starts from a fresh session, so an error or a
// finished transaction does not carry over to the next one.
func (s *store) WithConn(
	ctx context.Context,
	fn func(tx *gorm.DB) error,
) error {
	if s.db == nil {
		return fmt.Errorf("store not started")
	}

	return s.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return fn(tx.Session(&gorm.Session{}))
	})
}

// Distinct lists the values offered by a menu field.
func (s *store) Distinct(ctx context.Context, expr string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT %s AS value FROM once ORDER BY value", expr,
	)

	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("listing distinct %s: %w", expr, err)
	}
	defer rows.Close()

	out := make([]string, 0, 16)

	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning distinct %s: %w", expr, err)
		}

		if v.Valid && v.String != "" {
			out = append(out, v.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating distinct %s: %w", expr, err)
	}

	return out, nil
}
