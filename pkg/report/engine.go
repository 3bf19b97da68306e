package report

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Database is the part of the results store the engine needs.
type Database interface {
	Driver() string
	WithConn(ctx context.Context, fn func(tx *gorm.DB) error) error
	Distinct(ctx context.Context, expr string) ([]string, error)
}

// Engine executes reports against the results database.
type Engine interface {
	// Execute runs the report described by spec. Query failures yield an
	// empty result; only an unavailable database is an error.
	Execute(ctx context.Context, spec *QuerySpec) (*Result, error)
	// Menus returns the selectable values of every menu field.
	Menus(ctx context.Context) (map[string][]string, error)
	// Dialect returns the SQL dialect of the database.
	Dialect() Dialect
}

// Compile-time interface check.
var _ Engine = (*engine)(nil)

type engine struct {
	log     logrus.FieldLogger
	db      Database
	dialect Dialect
}

// NewEngine creates a report engine on db.
func NewEngine(log logrus.FieldLogger, db Database) Engine {
	return &engine{
		log:     log.WithField("component", "report"),
		db:      db,
		dialect: DialectFor(db.Driver()),
	}
}

func (e *engine) Dialect() Dialect {
	return e.dialect
}

// Execute materializes the phase union into a temporary table, aggregates
// it and drops it again, all on one connection.
func (e *engine) Execute(ctx context.Context, spec *QuerySpec) (*Result, error) {
	plan := BuildPlan(spec)

	res := &Result{
		SQL: []string{plan.Create, plan.Aggregate, plan.Drop},
	}

	err := e.db.WithConn(ctx, func(tx *gorm.DB) error {
		// A table left behind by an aborted report on this connection.
		if err := tx.Exec(plan.Drop).Error; err != nil {
			e.queryFailed(spec, res, "dropping stale union table", err)

			return nil
		}

		defer func() {
			if err := tx.Exec(plan.Drop).Error; err != nil {
				e.log.WithError(err).Warn("Failed to drop union table")
			}
		}()

		if err := tx.Exec(plan.Create, plan.Args...).Error; err != nil {
			e.queryFailed(spec, res, "creating union table", err)

			return nil
		}

		rows, err := tx.Raw(plan.Aggregate).Rows()
		if err != nil {
			e.queryFailed(spec, res, "aggregating", err)

			return nil
		}
		defer rows.Close()

		scanned, err := scanRows(rows, spec)
		if err != nil {
			e.queryFailed(spec, res, "reading rows", err)

			return nil
		}

		res.Rows = scanned

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("acquiring database connection: %w", err)
	}

	e.log.WithField("phases", spec.phases).
		WithField("by_run", spec.byRun).
		WithField("rows", len(res.Rows)).
		Debug("Report executed")

	return res, nil
}

// queryFailed records a failed statement. The report renders as empty.
func (e *engine) queryFailed(spec *QuerySpec, res *Result, stage string, err error) {
	res.Rows = nil
	res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", stage, err))

	entry := e.log.WithError(err).WithField("stage", stage)

	if spec.Debug() {
		entry.Warn("Report query failed")

		return
	}

	entry.Debug("Report query failed")
}

// Menus lists the distinct values of each menu field.
func (e *engine) Menus(ctx context.Context) (map[string][]string, error) {
	menus := make(map[string][]string, len(MenuFields))

	for _, name := range MenuFields {
		f, _ := LookupField(name)

		values, err := e.db.Distinct(ctx, f.SQL())
		if err != nil {
			return nil, fmt.Errorf("loading menu %s: %w", name, err)
		}

		menus[name] = values
	}

	return menus, nil
}
